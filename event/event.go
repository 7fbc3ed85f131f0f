/*
Package event provides the hand-off between the goroutine that talks to the lighting daemon and the goroutine that consumes its results.

An [Event] is inert work: a callback and the arguments it should be called with.
Events are pushed to a [Queue] by a producer, and popped and run by a consumer on its own schedule.
This keeps consumer state (typically UI state) exclusively owned by the consumer's goroutine.

The Forward family of functions adapt a typed consumer callback into a handler of the same shape, which pushes an [Event] to a [Sink] when called.
*/
package event

// Callback is the function wrapped by an [Event].
type Callback = func(args ...any)

// Event pairs a [Callback] with the arguments it should be called with.
// The zero value is a valid, empty Event.
type Event struct {
	callback Callback
	args     []any
}

// New creates an [Event] that calls callback with args when run.
// Neither callback nor args are validated, a nil callback results in an Event that does nothing.
func New(callback Callback, args ...any) Event {
	return Event{callback: callback, args: args}
}

// Run calls the wrapped [Callback] with exactly the stored arguments.
// Run does nothing if the callback is nil.
// A panic in the callback is not recovered.
func (e Event) Run() {
	if e.callback == nil {
		return
	}
	e.callback(e.args...)
}

// Args returns a copy of the arguments the [Callback] will be called with.
func (e Event) Args() []any {
	if len(e.args) == 0 {
		return nil
	}
	args := make([]any, len(e.args))
	copy(args, e.args)
	return args
}

// Empty reports whether running this [Event] would do nothing.
func (e Event) Empty() bool {
	return e.callback == nil
}
