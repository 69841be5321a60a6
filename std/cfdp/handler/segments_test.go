package handler

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSegmentTrackerMerge(t *testing.T) {
	var s segmentTracker
	require.Equal(t, uint64(0), s.end())
	require.True(t, s.complete(0))
	require.False(t, s.complete(1))

	s.add(10, 20)
	s.add(30, 40)
	s.add(0, 5)
	require.Equal(t, []span{{0, 5}, {10, 20}, {30, 40}}, s.spans)
	require.Equal(t, uint64(25), s.received())
	require.Equal(t, uint64(40), s.end())

	// overlap and adjacency both merge
	s.add(15, 30)
	require.Equal(t, []span{{0, 5}, {10, 40}}, s.spans)
	s.add(5, 10)
	require.Equal(t, []span{{0, 40}}, s.spans)
	require.True(t, s.complete(40))
	require.False(t, s.complete(41))

	// duplicates and empty ranges change nothing
	s.add(3, 12)
	s.add(7, 7)
	require.Equal(t, []span{{0, 40}}, s.spans)
	require.Equal(t, uint64(40), s.received())

	s.add(50, 60)
	s.add(0, 100)
	require.Equal(t, []span{{0, 100}}, s.spans)

	s.reset()
	require.Empty(t, s.spans)
	require.Equal(t, uint64(0), s.received())
}

func TestSegmentTrackerMissing(t *testing.T) {
	var s segmentTracker
	require.Equal(t, []span{{0, 12}}, s.missing(12, 0))
	require.Nil(t, s.missing(0, 0))

	s.add(4, 8)
	s.add(10, 12)
	require.Equal(t, []span{{0, 4}, {8, 10}}, s.missing(12, 0))
	require.Equal(t, []span{{0, 4}, {8, 10}, {12, 20}}, s.missing(20, 0))
	require.Equal(t, []span{{0, 4}}, s.missing(20, 1))
	// data past the scope is not a gap
	require.Equal(t, []span{{0, 4}}, s.missing(6, 0))
}
