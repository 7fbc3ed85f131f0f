/*
Package ola describes the boundary with the Open Lighting Architecture daemon (olad).

Nothing in this package talks to olad directly.
It defines the value objects olad hands back (universes, devices, ports, request statuses), and the capabilities a daemon client and its reactor must provide to be driven by the dispatch package.

# Threading

A [Client] is not safe for concurrent use.
It's expected to be used exclusively from the goroutine running its [Reactor], and the completion callbacks it's given are called on that goroutine when the client's socket becomes readable.
Other goroutines must use [Reactor.Execute] to get work onto that goroutine.
*/
package ola
