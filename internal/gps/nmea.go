package gps

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"firestige.xyz/wardriver/internal/core"
)

// SentenceKind identifies the NMEA sentences the reader understands.
type SentenceKind int

const (
	SentenceUnknown SentenceKind = iota
	SentenceRMC
	SentenceGGA
)

func (k SentenceKind) String() string {
	switch k {
	case SentenceRMC:
		return "RMC"
	case SentenceGGA:
		return "GGA"
	default:
		return "unknown"
	}
}

// Sentence is a decoded NMEA 0183 line.
type Sentence struct {
	Kind   SentenceKind
	Talker string
	Fix    core.Fix
}

// ParseSentence decodes one NMEA line such as
// "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A".
// Lines that are not RMC or GGA yield SentenceUnknown and no error.
// A present "*hh" checksum must match.
func ParseSentence(line string) (Sentence, error) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") && !strings.HasPrefix(line, "!") {
		return Sentence{}, nil
	}
	body := line[1:]
	if i := strings.IndexByte(body, '*'); i >= 0 {
		if err := verifyChecksum(body[:i], body[i+1:]); err != nil {
			return Sentence{}, err
		}
		body = body[:i]
	}

	fields := strings.Split(body, ",")
	if len(fields[0]) != 5 {
		return Sentence{}, nil
	}
	s := Sentence{Talker: fields[0][:2]}
	switch fields[0][2:] {
	case "RMC":
		// time, status, lat, N/S, lon, E/W
		s.Kind = SentenceRMC
		s.Fix = core.Fix{
			Time: parseFloat(field(fields, 1)),
			Lat:  ParseCoordinate(field(fields, 3), field(fields, 4)),
			Lon:  ParseCoordinate(field(fields, 5), field(fields, 6)),
		}
	case "GGA":
		// time, lat, N/S, lon, E/W
		s.Kind = SentenceGGA
		s.Fix = core.Fix{
			Time: parseFloat(field(fields, 1)),
			Lat:  ParseCoordinate(field(fields, 2), field(fields, 3)),
			Lon:  ParseCoordinate(field(fields, 4), field(fields, 5)),
		}
	}
	return s, nil
}

// ParseCoordinate converts a DDDMM.MMMM value to decimal degrees.
// S and W hemispheres are negative. Unparsable input yields 0.
func ParseCoordinate(value, hemisphere string) float64 {
	v := parseFloat(value)
	deg := math.Floor(v / 100)
	dec := deg + (v-deg*100)/60
	switch strings.TrimSpace(hemisphere) {
	case "S", "W":
		return -dec
	}
	return dec
}

func verifyChecksum(payload, sum string) error {
	if len(sum) < 2 {
		return fmt.Errorf("%w: short checksum %q", core.ErrChecksumMismatch, sum)
	}
	want, err := strconv.ParseUint(sum[:2], 16, 8)
	if err != nil {
		return fmt.Errorf("%w: bad checksum %q", core.ErrChecksumMismatch, sum)
	}
	var got byte
	for i := 0; i < len(payload); i++ {
		got ^= payload[i]
	}
	if got != byte(want) {
		return fmt.Errorf("%w: got %02X want %02X", core.ErrChecksumMismatch, got, want)
	}
	return nil
}

func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}

func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
