package utils

import (
	"fmt"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"golang.org/x/net/bpf"
)

// CompileBpf compiles a pcap filter expression for the given link type into
// raw instructions suitable for an AF_PACKET socket.
func CompileBpf(linkType layers.LinkType, snapLen int, filter string) ([]bpf.RawInstruction, error) {
	pcapBpf, err := pcap.CompileBPFFilter(linkType, snapLen, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to compile BPF filter %q: %w", filter, err)
	}

	rawBpf := make([]bpf.RawInstruction, len(pcapBpf))
	for i, ins := range pcapBpf {
		rawBpf[i] = bpf.RawInstruction{Op: ins.Code, Jt: ins.Jt, Jf: ins.Jf, K: ins.K}
	}
	return rawBpf, nil
}

// ValidateBpf compiles filter for radiotap-encapsulated 802.11 and checks the
// program decodes fully. It returns the instruction count.
func ValidateBpf(snapLen int, filter string) (int, error) {
	raw, err := CompileBpf(layers.LinkTypeIEEE80211Radio, snapLen, filter)
	if err != nil {
		return 0, err
	}
	insns, ok := bpf.Disassemble(raw)
	if !ok {
		return len(insns), fmt.Errorf("BPF filter %q contains undecodable instructions", filter)
	}
	return len(insns), nil
}
