package device

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRecordsActiveID(t *testing.T) {
	SetBinding(nil)
	defer SetBinding(nil)

	require.NoError(t, Select(2))
	assert.Equal(t, 2, Active())

	// Reselecting the active device is allowed.
	require.NoError(t, Select(2))
	assert.Equal(t, 2, Active())
}

func TestSelectInvokesBinding(t *testing.T) {
	defer SetBinding(nil)

	var calls []int
	SetBinding(func(id int) error {
		calls = append(calls, id)
		return nil
	})

	require.NoError(t, Select(0))
	require.NoError(t, Select(0))
	assert.Equal(t, []int{0, 0}, calls)
}

func TestSelectBindingFailure(t *testing.T) {
	defer SetBinding(nil)

	require.NoError(t, Select(1))
	SetBinding(func(id int) error {
		return fmt.Errorf("no device %d", id)
	})

	err := Select(7)
	require.Error(t, err)
	// A failed selection leaves the previous device active.
	assert.Equal(t, 1, Active())
}
