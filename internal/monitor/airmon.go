// Package monitor puts a wireless interface into monitor mode and tunes it.
package monitor

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Controller drives the radio. Implementations shell out to the wireless tools.
type Controller interface {
	// Enable starts monitor mode on iface. The monitor interface may get a new name.
	Enable(ctx context.Context, iface string) error
	// Disable stops monitor mode on the monitor interface.
	Disable(ctx context.Context, monIface string) error
	SetChannel(ctx context.Context, iface string, channel int) error
}

// Lister enumerates interface names.
type Lister interface {
	ListInterfaces() ([]string, error)
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) (string, error)

// Exec is the default Runner.
func Exec(ctx context.Context, name string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, name, args...).CombinedOutput()
	return string(out), err
}

// Airmon controls monitor mode with airmon-ng and iwconfig.
type Airmon struct {
	run Runner
}

func NewAirmon(run Runner) *Airmon {
	if run == nil {
		run = Exec
	}
	return &Airmon{run: run}
}

func (a *Airmon) Enable(ctx context.Context, iface string) error {
	return a.exec(ctx, "airmon-ng", "start", iface)
}

func (a *Airmon) Disable(ctx context.Context, monIface string) error {
	return a.exec(ctx, "airmon-ng", "stop", monIface)
}

func (a *Airmon) SetChannel(ctx context.Context, iface string, channel int) error {
	return a.exec(ctx, "iwconfig", iface, "channel", strconv.Itoa(channel))
}

func (a *Airmon) exec(ctx context.Context, name string, args ...string) error {
	out, err := a.run(ctx, name, args...)
	if err != nil {
		if out = strings.TrimSpace(out); out != "" {
			return fmt.Errorf("%s %s: %w: %s", name, strings.Join(args, " "), err, out)
		}
		return fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return nil
}

// Diff returns the names in after that are not in before, in after's order.
func Diff(before, after []string) []string {
	seen := make(map[string]struct{}, len(before))
	for _, n := range before {
		seen[n] = struct{}{}
	}
	var added []string
	for _, n := range after {
		if _, ok := seen[n]; !ok {
			added = append(added, n)
		}
	}
	return added
}
