package probe

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatest_Empty(t *testing.T) {
	var cell Latest
	_, ok := cell.Load()
	assert.False(t, ok, "Load must report no sample before the first Store")
}

func TestLatest_StoreLoad(t *testing.T) {
	var cell Latest
	now := time.Now()

	cell.Store(RawSample{Timestamp: now, PH: 3103, Temp: 880})

	got, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, uint16(3103), got.PH)
	assert.Equal(t, uint16(880), got.Temp)
	assert.Equal(t, now.UnixNano(), got.Timestamp.UnixNano())
}

func TestLatest_OverwriteKeepsNewest(t *testing.T) {
	var cell Latest
	now := time.Now()

	for i := uint16(0); i < 10; i++ {
		cell.Store(RawSample{Timestamp: now, PH: i, Temp: i})
	}

	got, ok := cell.Load()
	require.True(t, ok)
	assert.Equal(t, uint16(9), got.PH)
}

// TestLatest_ConcurrentReadersWriter exercises the cell under a writer and
// several readers; every load must observe a complete sample (PH and Temp
// stored together, never torn).
func TestLatest_ConcurrentReadersWriter(t *testing.T) {
	var cell Latest
	stop := make(chan struct{})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := uint16(0); ; i++ {
			select {
			case <-stop:
				return
			default:
				cell.Store(RawSample{Timestamp: time.Now(), PH: i, Temp: i})
			}
		}
	}()

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 1000; j++ {
				if s, ok := cell.Load(); ok {
					assert.Equal(t, s.PH, s.Temp, "sample must never be torn")
				}
			}
		}()
	}

	time.Sleep(20 * time.Millisecond)
	close(stop)
	wg.Wait()
}
