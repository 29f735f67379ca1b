package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"firestige.xyz/wardriver/internal/gps"
	"firestige.xyz/wardriver/internal/source/live"
)

// interfaceLister enumerates capture devices and serial ports.
type interfaceLister interface {
	Devices() ([]live.Device, error)
	SerialPorts() ([]string, error)
}

type systemLister struct{}

func (systemLister) Devices() ([]live.Device, error) { return live.Devices() }
func (systemLister) SerialPorts() ([]string, error)  { return gps.ListPorts() }

var interfacesCmd = &cobra.Command{
	Use:   "interfaces",
	Short: "List capture interfaces and serial ports",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInterfaces(systemLister{}, cmd.OutOrStdout())
	},
}

func runInterfaces(l interfaceLister, w io.Writer) error {
	devices, err := l.Devices()
	if err != nil {
		return fmt.Errorf("list capture interfaces: %w", err)
	}

	fmt.Fprintln(w, "Capture interfaces:")
	if len(devices) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, d := range devices {
		line := "  " + d.Name
		if d.Description != "" {
			line += "  " + d.Description
		}
		if len(d.Addresses) > 0 {
			line += "  [" + strings.Join(d.Addresses, ", ") + "]"
		}
		fmt.Fprintln(w, line)
	}

	// A missing serial subsystem is not fatal for listing.
	ports, err := l.SerialPorts()
	fmt.Fprintln(w, "Serial ports:")
	switch {
	case err != nil:
		fmt.Fprintf(w, "  (unavailable: %v)\n", err)
	case len(ports) == 0:
		fmt.Fprintln(w, "  (none)")
	}
	for _, p := range ports {
		fmt.Fprintln(w, "  "+p)
	}
	return nil
}
