package predictor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_LoadAndSwap(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Load())

	first := &Artifact{ID: "first"}
	assert.Nil(t, s.Swap(first))
	assert.Same(t, first, s.Load())

	second := &Artifact{ID: "second"}
	assert.Same(t, first, s.Swap(second))
	assert.Same(t, second, s.Load())
}

func TestStore_LoadOrInit(t *testing.T) {
	s := NewStore()

	calls := 0
	artifact := &Artifact{ID: "restored"}
	init := func() (*Artifact, error) {
		calls++
		return artifact, nil
	}

	got, err := s.LoadOrInit(init)
	require.NoError(t, err)
	assert.Same(t, artifact, got)
	assert.Equal(t, 1, calls)

	// Populated store never calls init again.
	got, err = s.LoadOrInit(init)
	require.NoError(t, err)
	assert.Same(t, artifact, got)
	assert.Equal(t, 1, calls)
}

func TestStore_LoadOrInitError(t *testing.T) {
	s := NewStore()
	boom := errors.New("no artifact")

	_, err := s.LoadOrInit(func() (*Artifact, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, s.Load())
}
