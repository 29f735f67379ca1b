package gps

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"firestige.xyz/wardriver/internal/core"
)

func TestCacheSeededWithSentinel(t *testing.T) {
	c := NewCache()
	assert.Equal(t, core.Fix{}, c.Load())
	assert.False(t, c.Load().Valid())
}

func TestCachePublish(t *testing.T) {
	c := NewCache()

	assert.True(t, c.Publish(core.Fix{Time: 123, Lat: 10, Lon: 20}))
	assert.Equal(t, core.Fix{Time: 123, Lat: 10, Lon: 20}, c.Load())

	assert.False(t, c.Publish(core.Fix{Time: 123, Lat: 10, Lon: 20}), "unchanged fix")
	assert.False(t, c.Publish(core.Fix{Time: 124}), "sentinel fix")
	assert.Equal(t, core.Fix{Time: 123, Lat: 10, Lon: 20}, c.Load())

	assert.True(t, c.Publish(core.Fix{Time: 124, Lat: 10, Lon: 20}))
	assert.Equal(t, 124.0, c.Load().Time)
}

func TestCacheConcurrentReadersNeverSeeTornOrSentinel(t *testing.T) {
	c := NewCache()
	c.Publish(core.Fix{Time: 1, Lat: 1, Lon: 1})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				f := c.Load()
				// every published fix has Lat == Lon == Time
				if f.Lat != f.Lon || f.Lat != f.Time || !f.Valid() {
					t.Errorf("inconsistent snapshot %+v", f)
					return
				}
			}
		}()
	}

	for i := 2; i < 5000; i++ {
		v := float64(i)
		c.Publish(core.Fix{Time: v, Lat: v, Lon: v})
		c.Publish(core.Fix{})
	}
	close(stop)
	wg.Wait()
}
