package log

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerBeforeInit(t *testing.T) {
	l := GetLogger()
	require.NotNil(t, l)
	assert.True(t, l.IsInfoEnabled())
	assert.False(t, l.IsDebugEnabled())
}

func TestNewLevels(t *testing.T) {
	tests := []struct {
		level string
		debug bool
		trace bool
	}{
		{"", false, false},
		{"info", false, false},
		{"debug", true, false},
		{"TRACE", true, true},
		{"warn", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(Config{Level: tt.level}, &bytes.Buffer{})
			require.NoError(t, err)
			assert.Equal(t, tt.debug, l.IsDebugEnabled())
			assert.Equal(t, tt.trace, l.IsTraceEnabled())
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestPatternOutput(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "debug", Pattern: "[%level] %msg | %field", Time: "15:04"}, &buf)
	require.NoError(t, err)

	l.WithFields(map[string]interface{}{"iface": "wlan0mon", "attempt": 2}).
		WithError(errors.New("boom")).
		Debug("enable monitor mode")

	assert.Equal(t, "[DEBUG] enable monitor mode | attempt=2 error=boom iface=wlan0mon\n", buf.String())
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l, err := New(Config{Level: "warn"}, &buf)
	require.NoError(t, err)

	l.Info("hidden")
	l.Warnf("shown %d", 1)

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "[WARNING] shown 1")
}

func TestFileAppender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wardriver.log")
	var out bytes.Buffer
	l, err := New(Config{File: FileConfig{Enabled: true, Filename: path, MaxSize: 1}}, &out)
	require.NoError(t, err)

	l.Info("gps fix acquired")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "gps fix acquired"))
	assert.Contains(t, out.String(), "gps fix acquired")
}

func TestFileAppenderRequiresFilename(t *testing.T) {
	_, err := New(Config{File: FileConfig{Enabled: true}}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestInitReplacesGlobal(t *testing.T) {
	prev := GetLogger()
	t.Cleanup(func() {
		mu.Lock()
		logger = prev
		mu.Unlock()
	})

	require.NoError(t, Init(Config{Level: "debug"}))
	assert.True(t, GetLogger().IsDebugEnabled())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestMultiWriterKeepsWritingAfterFailure(t *testing.T) {
	var a, b bytes.Buffer
	mw := NewMultiWriter(&a, failingWriter{}).Add(&b)

	n, err := mw.Write([]byte("entry\n"))
	assert.Equal(t, 6, n)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, "entry\n", a.String())
	assert.Equal(t, "entry\n", b.String())
}
