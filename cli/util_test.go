package cli

import (
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"testing"
)

func TestIntArgs(t *testing.T) {
	tests := map[string]struct {
		args     []string
		expected []int
		isError  bool
	}{
		"Normal mapping": {
			args:     []string{"1", "0", "50"},
			expected: []int{1, 0, 50},
		},
		"Not enough args": {
			args:    []string{"1", "0"},
			isError: true,
		},
		"Too many args": {
			args:    []string{"1", "0", "50", "2"},
			isError: true,
		},
		"Not a number": {
			args:    []string{"1", "zero", "50"},
			isError: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			vals, err := IntArgs(tc.args, "device", "port", "universe")
			if tc.isError {
				assert.ErrorIs(t, err, &UsageError{})
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, vals)
		})
	}
}

func TestRequireArgs(t *testing.T) {
	assert.NoError(t, RequireArgs([]string{"a"}, 1, 1))
	assert.NoError(t, RequireArgs([]string{"a", "b", "c"}, 1, -1))
	assert.ErrorIs(t, RequireArgs(nil, 1, 1), &UsageError{})
	assert.ErrorIs(t, RequireArgs([]string{"a", "b"}, 0, 1), &UsageError{})
}
