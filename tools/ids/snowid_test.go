package ids

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateMonotonic(t *testing.T) {
	prev := Generate()
	for i := 0; i < 1000; i++ {
		id := Generate()
		assert.Greater(t, id, prev)
		prev = id
	}
}

func TestGenerateUniqueUnderConcurrency(t *testing.T) {
	const goroutines, perG = 8, 500

	var mu sync.Mutex
	seen := make(map[int64]bool, goroutines*perG)

	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			local := make([]int64, 0, perG)
			for i := 0; i < perG; i++ {
				local = append(local, Generate())
			}
			mu.Lock()
			for _, id := range local {
				assert.False(t, seen[id], "duplicate id %d", id)
				seen[id] = true
			}
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, goroutines*perG)
}

func TestSetNodeIDClampsRange(t *testing.T) {
	defer SetNodeID(1)

	SetNodeID(42)
	assert.EqualValues(t, 42, (Generate()>>12)&0x3FF)

	SetNodeID(5000) // out of range falls back to the default node
	assert.EqualValues(t, 1, (Generate()>>12)&0x3FF)
}
