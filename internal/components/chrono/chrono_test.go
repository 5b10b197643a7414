package chrono

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFixedImplSteps(t *testing.T) {
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := &FixedImpl{Current: start, Step: time.Second}

	require.Equal(t, start, clock.Now())
	require.Equal(t, start.Add(time.Second), clock.Now())
	require.Equal(t, time.UTC, clock.Location())
}

func TestStandardImplLocation(t *testing.T) {
	require.Equal(t, time.Local, NewStandardImpl(nil).Location())

	loc := time.FixedZone("test", -5*60*60)
	clock := NewStandardImpl(loc)
	require.Equal(t, loc, clock.Now().Location())
}
