package assert

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type holder struct{}

func TestNotNil(t *testing.T) {
	var typedNil *holder
	require.Panics(t, func() { NotNil(nil) })
	require.Panics(t, func() { NotNil(typedNil) })
	require.NotPanics(t, func() { NotNil(&holder{}) })
}

func recurse(depth int) {
	NotCircular()
	if depth > 0 {
		recurse(depth - 1)
	}
}

func TestNotCircular(t *testing.T) {
	require.NotPanics(t, func() { recurse(0) })
	require.Panics(t, func() { recurse(1) })
}
