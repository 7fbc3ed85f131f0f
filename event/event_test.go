package event

import (
	"github.com/stretchr/testify/assert"
	"testing"
)

func TestEvent_Run(t *testing.T) {
	t.Run("No args", func(t *testing.T) {
		var (
			executed bool
			got      []any
		)
		evt := New(func(args ...any) {
			executed = true
			got = args
		})
		evt.Run()
		assert.True(t, executed, "Callback should have been called")
		assert.Empty(t, got)
	})
	t.Run("Args in order", func(t *testing.T) {
		var got []any
		evt := New(func(args ...any) {
			got = args
		}, 1, "hello", 2)
		evt.Run()
		assert.Equal(t, []any{1, "hello", 2}, got)
	})
	t.Run("Nil callback", func(t *testing.T) {
		evt := New(nil, 1, 2)
		assert.True(t, evt.Empty())
		assert.NotPanics(t, evt.Run)
		assert.NotPanics(t, Event{}.Run)
	})
	t.Run("Panics propagate", func(t *testing.T) {
		evt := New(func(...any) {
			panic("callback failure")
		})
		assert.PanicsWithValue(t, "callback failure", evt.Run)
	})
}

func TestEvent_Args(t *testing.T) {
	evt := New(func(...any) {}, "a", 1)
	args := evt.Args()
	assert.Equal(t, []any{"a", 1}, args)
	args[0] = "mutated"
	assert.Equal(t, []any{"a", 1}, evt.Args(), "Args should return a copy")
	assert.Nil(t, New(nil).Args())
}
