package connectivity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlag_ZeroValueIsDisconnected(t *testing.T) {
	var f Flag
	assert.False(t, f.Connected())
}

func TestFlag_Set(t *testing.T) {
	f := NewFlag(false)

	assert.True(t, f.Set(true), "false -> true is a change")
	assert.True(t, f.Connected())
	assert.False(t, f.Set(true), "true -> true is not a change")
	assert.True(t, f.Set(false))
	assert.False(t, f.Connected())
}

func TestFlag_ConcurrentAccess(t *testing.T) {
	f := NewFlag(true)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			f.Set(i%2 == 0)
		}()
		go func() {
			defer wg.Done()
			_ = f.Connected()
		}()
	}
	wg.Wait()
}

func TestAlways(t *testing.T) {
	var s Signal = Always(true)
	assert.True(t, s.Connected())
	assert.False(t, Always(false).Connected())
}
