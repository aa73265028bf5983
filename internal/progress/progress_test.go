package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackerCounts(t *testing.T) {
	var out bytes.Buffer
	tr := New(&out, false)

	assert.Equal(t, 0.0, tr.Percent())

	tr.Begin(4)
	tr.Status("SYDNEY NSW 2000 aged-care-homes")
	tr.Advance()
	assert.Equal(t, 1, tr.Done())
	assert.InDelta(t, 0.25, tr.Percent(), 1e-9)

	for i := 0; i < 5; i++ {
		tr.Advance()
	}
	assert.Equal(t, 4, tr.Done(), "never passes the total")
	assert.Equal(t, 1.0, tr.Percent())

	tr.Stop()
	assert.Empty(t, out.String(), "disabled tracker draws nothing")
}

func TestTrackerBeginResets(t *testing.T) {
	tr := New(nil, false)
	tr.Begin(2)
	tr.Advance()
	tr.Begin(3)
	assert.Equal(t, 0, tr.Done())
}
