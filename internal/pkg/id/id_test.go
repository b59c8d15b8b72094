package id

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Sortable(t *testing.T) {
	a := New()
	time.Sleep(2 * time.Millisecond)
	b := New()
	assert.Len(t, a, 26)
	assert.Less(t, a, b)
}

func TestTime_RoundTrip(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Time(New())
	require.NoError(t, err)
	assert.True(t, ts.After(before))
}

func TestTime_Invalid(t *testing.T) {
	_, err := Time("not-a-ulid")
	assert.Error(t, err)
}
