package queue

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueue(t *testing.T) {
	q := New()
	assert.True(t, q.Add("a"))
	assert.True(t, q.Add("b"))
	assert.False(t, q.Add("a"))
	assert.True(t, q.Add("c/results"))
	assert.Equal(t, 3, q.Len())

	q.Filter(func(u string) bool { return !strings.Contains(u, "results") })
	assert.Equal(t, []string{"a", "b"}, q.Items())
	assert.True(t, q.Contains("c/results"), "filtered URLs stay known")

	q.Truncate(0)
	assert.Equal(t, 2, q.Len())
	q.Truncate(1)
	assert.Equal(t, []string{"a"}, q.Items())
	assert.False(t, q.Add("b"), "truncated URLs stay known")
}
