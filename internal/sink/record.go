package sink

import (
	"strconv"
	"unicode/utf8"

	"firestige.xyz/wardriver/internal/core"
)

const hexDigits = "0123456789abcdef"

// AppendRecord appends the tab-delimited log line for ev to buf:
//
//	<type>\t<ssid>\t<mac>\t<lat>\t<lon>\t<time>\n
func AppendRecord(buf []byte, ev core.CapturedEvent) []byte {
	buf = append(buf, ev.Frame.Type.String()...)
	buf = append(buf, '\t')
	buf = AppendSSID(buf, ev.Frame.SSID())
	buf = append(buf, '\t')
	buf = append(buf, ev.Frame.Transmitter.String()...)
	buf = append(buf, '\t')
	buf = strconv.AppendFloat(buf, ev.Fix.Lat, 'f', 6, 64)
	buf = append(buf, '\t')
	buf = strconv.AppendFloat(buf, ev.Fix.Lon, 'f', 6, 64)
	buf = append(buf, '\t')
	buf = strconv.AppendFloat(buf, ev.Fix.Time, 'f', 2, 64)
	return append(buf, '\n')
}

// FormatRecord returns the log line for ev without the trailing newline.
func FormatRecord(ev core.CapturedEvent) string {
	b := AppendRecord(nil, ev)
	return string(b[:len(b)-1])
}

// AppendSSID renders raw SSID bytes as UTF-8 text. Invalid sequences become
// U+FFFD, control characters become \xNN and a backslash becomes \\, so the
// result never contains a tab or newline.
func AppendSSID(buf, ssid []byte) []byte {
	for len(ssid) > 0 {
		r, size := utf8.DecodeRune(ssid)
		switch {
		case r == utf8.RuneError && size == 1:
			buf = utf8.AppendRune(buf, utf8.RuneError)
		case r == '\\':
			buf = append(buf, '\\', '\\')
		case r < 0x20 || r == 0x7f:
			buf = append(buf, '\\', 'x', hexDigits[r>>4], hexDigits[r&0x0f])
		default:
			buf = append(buf, ssid[:size]...)
		}
		ssid = ssid[size:]
	}
	return buf
}

// SSIDText is AppendSSID as a string.
func SSIDText(ssid []byte) string {
	return string(AppendSSID(nil, ssid))
}
