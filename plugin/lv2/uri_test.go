package lv2

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestURIToID(t *testing.T) {
	r := NewURIRegistry()

	assert.False(t, r.HasURI("http://ex/a"))
	assert.Equal(t, uint32(1), r.URIToID("http://ex/a"))
	assert.Equal(t, uint32(2), r.URIToID("http://ex/b"))
	assert.Equal(t, uint32(1), r.URIToID("http://ex/a"))
	assert.True(t, r.HasURI("http://ex/a"))

	assert.Equal(t, "http://ex/a", r.IDToURI(1))
	assert.Equal(t, "", r.IDToURI(99))
	assert.Equal(t, "", r.IDToURI(0))

	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"http://ex/a", "http://ex/b"}, r.URIs())
}

func TestHasURIDoesNotAssign(t *testing.T) {
	r := NewURIRegistry()
	assert.False(t, r.HasURI("http://ex/a"))
	assert.Equal(t, 0, r.Len())
}

func TestURIToIDConcurrent(t *testing.T) {
	r := NewURIRegistry()
	const workers, uris = 8, 100

	var wg sync.WaitGroup
	results := make([][]uint32, workers)
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			res := make([]uint32, uris)
			for i := 0; i < uris; i++ {
				res[i] = r.URIToID(fmt.Sprintf("http://ex/%d", i))
			}
			results[w] = res
		}(w)
	}
	wg.Wait()

	require.Equal(t, uris, r.Len())
	seen := make(map[uint32]bool)
	for i, id := range results[0] {
		assert.NotZero(t, id)
		assert.LessOrEqual(t, id, uint32(uris))
		assert.False(t, seen[id], "id %d assigned twice", id)
		seen[id] = true
		for w := 1; w < workers; w++ {
			assert.Equal(t, id, results[w][i])
		}
		assert.Equal(t, fmt.Sprintf("http://ex/%d", i), r.IDToURI(id))
	}
}
