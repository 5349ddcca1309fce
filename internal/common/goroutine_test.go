package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

func TestSafeCall_ReturnsError(t *testing.T) {
	want := errors.New("boom")
	err := SafeCall(arbor.NewNoOpLogger(), "test", func() error { return want })
	assert.Equal(t, want, err)

	assert.NoError(t, SafeCall(arbor.NewNoOpLogger(), "test", func() error { return nil }))
}

func TestSafeCall_RecoversPanic(t *testing.T) {
	err := SafeCall(arbor.NewNoOpLogger(), "job:analysis", func() error {
		panic("kernel died")
	})

	var panicErr *PanicError
	require.ErrorAs(t, err, &panicErr)
	assert.Equal(t, "job:analysis", panicErr.Name)
	assert.Equal(t, "kernel died", panicErr.Value)
	assert.NotEmpty(t, panicErr.Stack)
	assert.Contains(t, err.Error(), "kernel died")
}
