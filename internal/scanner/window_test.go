package scanner

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"raffleScope/internal/model"
)

func TestNewWindow(t *testing.T) {
	for _, from := range []uint64{0, 100, 53272224} {
		w, err := NewWindow(from, DefaultWindowSize)
		require.NoError(t, err)
		require.Equal(t, from, w.From)
		require.Equal(t, DefaultWindowSize, w.To-w.From)
	}

	w, err := NewWindow(100, DefaultWindowSize)
	require.NoError(t, err)
	require.Equal(t, model.ScanWindow{From: 100, To: 100100}, w)
}

func TestNewWindowInvalid(t *testing.T) {
	_, err := NewWindow(10, 0)
	require.Error(t, err)

	_, err = NewWindow(math.MaxUint64-5, 10)
	require.Error(t, err)
}
