package dedup

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestShouldProcess(t *testing.T) {
	d := New(time.Minute, 10)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d.now = func() time.Time { return now }

	assert.True(t, d.ShouldProcess("a"))
	assert.False(t, d.ShouldProcess("a"))
	assert.True(t, d.ShouldProcess(""))
	assert.True(t, d.ShouldProcess(""))

	now = now.Add(61 * time.Second)
	assert.True(t, d.ShouldProcess("a"), "expired ids are processed again")
}

func TestCapacity(t *testing.T) {
	d := New(time.Hour, 3)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	step := 0
	d.now = func() time.Time { step++; return base.Add(time.Duration(step) * time.Second) }

	for i := 0; i < 5; i++ {
		assert.True(t, d.ShouldProcess(fmt.Sprintf("id-%d", i)))
	}
	assert.Equal(t, 3, d.Len())
	// id-0 was the oldest and has been evicted.
	assert.True(t, d.ShouldProcess("id-0"))
	assert.False(t, d.ShouldProcess("id-4"))
}
