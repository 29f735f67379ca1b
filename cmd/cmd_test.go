package cmd

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"firestige.xyz/wardriver/internal/config"
	"firestige.xyz/wardriver/internal/core"
	"firestige.xyz/wardriver/internal/source/live"
)

type MockLister struct {
	mock.Mock
}

func (m *MockLister) Devices() ([]live.Device, error) {
	args := m.Called()
	devices, _ := args.Get(0).([]live.Device)
	return devices, args.Error(1)
}

func (m *MockLister) SerialPorts() ([]string, error) {
	args := m.Called()
	ports, _ := args.Get(0).([]string)
	return ports, args.Error(1)
}

func TestRunInterfaces(t *testing.T) {
	l := new(MockLister)
	l.On("Devices").Return([]live.Device{
		{Name: "wlan1", Description: "USB adapter"},
		{Name: "eth0", Addresses: []string{"192.168.1.2"}},
	}, nil)
	l.On("SerialPorts").Return([]string{"/dev/serial0"}, nil)

	var buf bytes.Buffer
	require.NoError(t, runInterfaces(l, &buf))

	out := buf.String()
	assert.Contains(t, out, "  wlan1  USB adapter\n")
	assert.Contains(t, out, "  eth0  [192.168.1.2]\n")
	assert.Contains(t, out, "Serial ports:\n  /dev/serial0\n")
	l.AssertExpectations(t)
}

func TestRunInterfaces_SerialUnavailable(t *testing.T) {
	l := new(MockLister)
	l.On("Devices").Return(nil, nil)
	l.On("SerialPorts").Return(nil, errors.New("no serial subsystem"))

	var buf bytes.Buffer
	require.NoError(t, runInterfaces(l, &buf))
	assert.Contains(t, buf.String(), "Capture interfaces:\n  (none)\n")
	assert.Contains(t, buf.String(), "unavailable: no serial subsystem")
}

func TestRunInterfaces_DeviceError(t *testing.T) {
	l := new(MockLister)
	l.On("Devices").Return(nil, errors.New("permission denied"))

	err := runInterfaces(l, &bytes.Buffer{})
	assert.ErrorContains(t, err, "permission denied")
	l.AssertNotCalled(t, "SerialPorts")
}

func TestRunConfigExample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, runConfigExample(&buf))
	assert.Contains(t, buf.String(), "wardriver:")
	assert.Contains(t, buf.String(), "flush_interval: 1s")
}

func TestRunConfigValidate(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.yml")
	require.NoError(t, os.WriteFile(good, []byte("wardriver:\n  interface: wlan0\n"), 0o644))
	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("wardriver:\n  batch:\n    size: -1\n"), 0o644))

	var buf bytes.Buffer
	require.NoError(t, runConfigValidate(good, &buf))
	assert.Contains(t, buf.String(), `VALID: interface "wlan0"`)

	err := runConfigValidate(bad, &buf)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrConfigInvalid)
	assert.Contains(t, err.Error(), "INVALID")
}

func TestRunRun_InterfaceOverride(t *testing.T) {
	var got *config.Config
	err := runRun(context.Background(), filepath.Join(t.TempDir(), "absent.yml"), "wlan9",
		func(_ context.Context, cfg *config.Config) error {
			got = cfg
			return nil
		})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "wlan9", got.Interface)
	assert.Equal(t, 20, got.Batch.Size)
}

func TestRunRun_PropagatesError(t *testing.T) {
	err := runRun(context.Background(), "", "", func(context.Context, *config.Config) error {
		return core.ErrSourceFailed
	})
	assert.ErrorIs(t, err, core.ErrSourceFailed)
}
