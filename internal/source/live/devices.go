package live

import (
	"fmt"

	"github.com/google/gopacket/pcap"
)

// Device is a capture-capable interface.
type Device struct {
	Name        string
	Description string
	Addresses   []string
}

// Devices lists the interfaces libpcap can open.
func Devices() ([]Device, error) {
	ifs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, fmt.Errorf("pcap: list devices: %w", err)
	}
	devs := make([]Device, 0, len(ifs))
	for _, i := range ifs {
		d := Device{Name: i.Name, Description: i.Description}
		for _, a := range i.Addresses {
			d.Addresses = append(d.Addresses, a.IP.String())
		}
		devs = append(devs, d)
	}
	return devs, nil
}

// Lister enumerates interface names.
type Lister struct{}

func (Lister) ListInterfaces() ([]string, error) {
	devs, err := Devices()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(devs))
	for i, d := range devs {
		names[i] = d.Name
	}
	return names, nil
}
