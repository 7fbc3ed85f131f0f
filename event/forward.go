package event

// These functions make up a single adapter, spread across the callback arities used by the lighting daemon.
// Each returns a handler that may be given to the daemon client as a completion callback.
// When the daemon calls the handler, an Event is pushed to the sink that will call cb with the same arguments.
//
// A nil cb results in a handler that pushes nothing.

// Forward0 adapts a callback with no arguments.
func Forward0(sink Sink, cb func()) func() {
	if cb == nil {
		return func() {}
	}
	return func() {
		sink.Push(New(func(...any) {
			cb()
		}))
	}
}

// Forward1 adapts a callback with one argument.
func Forward1[A any](sink Sink, cb func(A)) func(A) {
	if cb == nil {
		return func(A) {}
	}
	return func(a A) {
		sink.Push(New(func(args ...any) {
			cb(arg[A](args, 0))
		}, a))
	}
}

// Forward2 adapts a callback with two arguments.
func Forward2[A, B any](sink Sink, cb func(A, B)) func(A, B) {
	if cb == nil {
		return func(A, B) {}
	}
	return func(a A, b B) {
		sink.Push(New(func(args ...any) {
			cb(arg[A](args, 0), arg[B](args, 1))
		}, a, b))
	}
}

// Forward3 adapts a callback with three arguments.
func Forward3[A, B, C any](sink Sink, cb func(A, B, C)) func(A, B, C) {
	if cb == nil {
		return func(A, B, C) {}
	}
	return func(a A, b B, c C) {
		sink.Push(New(func(args ...any) {
			cb(arg[A](args, 0), arg[B](args, 1), arg[C](args, 2))
		}, a, b, c))
	}
}

// arg extracts a typed argument, tolerating nil values of interface types.
func arg[T any](args []any, i int) T {
	val, _ := args[i].(T)
	return val
}
