package bounded_test

import (
	"testing"

	"github.com/kaidokert/fsfw-sub000/std/types/bounded"
	"github.com/stretchr/testify/require"
)

func TestBoundedPush(t *testing.T) {
	l := bounded.New[int](2)
	require.NoError(t, l.Push(1))
	require.NoError(t, l.Push(2))
	require.ErrorIs(t, l.Push(3), bounded.ErrCapacityExceeded)
	require.Equal(t, 2, l.Len())
	require.Equal(t, []int{1, 2}, l.Items())
}

func TestBoundedUnlimited(t *testing.T) {
	l := bounded.New[string](0)
	for i := 0; i < 100; i++ {
		require.NoError(t, l.Push("x"))
	}
	require.Equal(t, 100, l.Len())

	var nilList *bounded.List[int]
	require.Equal(t, 0, nilList.Len())
	require.Nil(t, nilList.Items())
}
