package id

import (
	"crypto/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrefixedIDs(t *testing.T) {
	eng := NewEngineID().String()
	strm := NewStreamID().String()

	assert.True(t, strings.HasPrefix(eng, EnginePrefix+"_"))
	assert.True(t, strings.HasPrefix(strm, StreamPrefix+"_"))
	assert.Len(t, eng, len(EnginePrefix)+1+26)
}

func TestGeneratorIsMonotonic(t *testing.T) {
	g := NewGenerator(rand.Reader)
	prev := g.Generate()
	for i := 0; i < 1000; i++ {
		next := g.Generate()
		require.Equal(t, 1, next.Compare(prev), "ids out of order at %d", i)
		prev = next
	}
}

func TestGeneratorConcurrent(t *testing.T) {
	g := NewGenerator(rand.Reader)
	var mu sync.Mutex
	seen := make(map[string]struct{})
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				s := g.WithPrefix("x")
				mu.Lock()
				seen[s] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 800)
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Timestamp(NewEngineID().String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))

	_, err = Timestamp("eng_not-a-ulid")
	assert.Error(t, err)
}
