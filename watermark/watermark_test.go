package watermark

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWatermark_UpdateIsMonotonic(t *testing.T) {
	w := New(100)
	require.Equal(t, uint64(100), w.Get())

	w.Update(50) // lower, ignored
	require.Equal(t, uint64(100), w.Get())

	w.Update(200)
	require.Equal(t, uint64(200), w.Get())
}

func TestWatermark_ConcurrentUpdatesCommuteUnderMax(t *testing.T) {
	w := New(0)

	var wg sync.WaitGroup
	for i := uint64(1); i <= 1000; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			w.Update(v)
		}(i)
	}
	wg.Wait()

	require.Equal(t, uint64(1000), w.Get())
}
