package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGeneratorMonotonic(t *testing.T) {
	t.Parallel()

	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	g := NewGenerator(func() time.Time { return fixed })

	prev := g.New()
	for i := 0; i < 100; i++ {
		next := g.New()
		assert.Len(t, next, 26)
		assert.Less(t, prev, next, "ids within one millisecond must increase")
		prev = next
	}
}

func TestNewUnique(t *testing.T) {
	t.Parallel()

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		s := New()
		assert.False(t, seen[s])
		seen[s] = true
	}
}
