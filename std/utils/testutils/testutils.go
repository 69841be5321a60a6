package utils

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

var testT *testing.T

func SetT(t *testing.T) {
	testT = t
}

func NoErr[T any](v T, err error) T {
	require.NoError(testT, err)
	return v
}

func Err[T any](_ T, err error) error {
	require.Error(testT, err)
	return err
}

// Hex decodes a hex literal for use as a test vector.
func Hex(s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(testT, err)
	return b
}
