package gps

import (
	"fmt"
	"time"

	"go.bug.st/serial"
)

// OpenSerial opens an 8N1 serial device. A read that sees no data within
// readTimeout returns (0, nil).
func OpenSerial(device string, baud int, readTimeout time.Duration) (Port, error) {
	port, err := serial.Open(device, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", device, err)
	}
	if readTimeout > 0 {
		if err := port.SetReadTimeout(readTimeout); err != nil {
			_ = port.Close()
			return nil, fmt.Errorf("set read timeout on %s: %w", device, err)
		}
	}
	return port, nil
}

// ListPorts returns the serial devices present on the system.
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}
