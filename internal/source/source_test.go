package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpenUnknownType(t *testing.T) {
	_, err := Open(Config{Type: "netmap"})
	assert.ErrorContains(t, err, "netmap")
}

func TestOpenRequiresTarget(t *testing.T) {
	for _, typ := range Types {
		t.Run(typ, func(t *testing.T) {
			_, err := Open(Config{Type: typ})
			assert.Error(t, err)
		})
	}
}
