// Package source opens the capture source selected by configuration.
package source

import (
	"fmt"
	"time"

	"firestige.xyz/wardriver/internal/capture"
	"firestige.xyz/wardriver/internal/source/afpacket"
	"firestige.xyz/wardriver/internal/source/file"
	"firestige.xyz/wardriver/internal/source/live"
)

// Types lists the supported source names.
var Types = []string{live.Name, afpacket.Name, file.Name}

// Config selects and configures a source.
type Config struct {
	Type        string
	Interface   string
	File        string
	SnapLen     int
	ReadTimeout time.Duration
	Filter      string
	Options     map[string]any
}

// Open creates the source named by cfg.Type.
func Open(cfg Config) (capture.Source, error) {
	var (
		src capture.Source
		err error
	)

	switch cfg.Type {
	case live.Name, "":
		src, err = nonNil(live.NewSource(live.Config{
			Device:      cfg.Interface,
			SnapLen:     cfg.SnapLen,
			ReadTimeout: cfg.ReadTimeout,
			Filter:      cfg.Filter,
			Options:     cfg.Options,
		}))
	case afpacket.Name:
		src, err = nonNil(afpacket.NewSource(afpacket.Config{
			Device:      cfg.Interface,
			SnapLen:     cfg.SnapLen,
			ReadTimeout: cfg.ReadTimeout,
			Filter:      cfg.Filter,
			Options:     cfg.Options,
		}))
	case file.Name:
		src, err = nonNil(file.NewSource(file.Config{
			Path:    cfg.File,
			Filter:  cfg.Filter,
			Options: cfg.Options,
		}))
	default:
		err = fmt.Errorf("unknown capture source %q", cfg.Type)
	}
	return src, err
}

// nonNil keeps a failed constructor from yielding a typed nil Source.
func nonNil[S capture.Source](s S, err error) (capture.Source, error) {
	if err != nil {
		return nil, err
	}
	return s, nil
}
