package selectserver

import (
	"errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"sync"
	"testing"
	"time"
)

const testTimeout = time.Second

type testDescriptor struct {
	ch chan struct{}
}

func (d *testDescriptor) Readable() <-chan struct{} {
	return d.ch
}

func runAsync(s *SelectServer) <-chan error {
	result := make(chan error, 1)
	go func() {
		result <- s.Run()
	}()
	return result
}

func awaitResult(t *testing.T, result <-chan error) error {
	t.Helper()
	select {
	case err := <-result:
		return err
	case <-time.After(testTimeout):
		t.Fatal("Run did not return in time")
		return nil
	}
}

func TestSelectServer_TerminateBeforeRun(t *testing.T) {
	s := New()
	s.Terminate()
	s.Terminate()
	assert.NoError(t, awaitResult(t, runAsync(s)))
}

func TestSelectServer_Execute(t *testing.T) {
	s := New()
	var (
		mux   sync.Mutex
		order []int
		done  = make(chan struct{})
	)
	for i := 0; i < 5; i++ {
		s.Execute(func() {
			mux.Lock()
			defer mux.Unlock()
			order = append(order, i)
			if i == 4 {
				close(done)
			}
		})
	}
	assert.Equal(t, 5, s.Pending())
	result := runAsync(s)
	select {
	case <-done:
	case <-time.After(testTimeout):
		t.Fatal("Tasks were not run")
	}
	s.Terminate()
	require.NoError(t, awaitResult(t, result))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)

	s.Execute(func() {
		t.Error("Tasks should not be accepted after termination")
	})
	assert.Equal(t, 0, s.Pending())
}

func TestSelectServer_RunsOnSingleGoroutine(t *testing.T) {
	s := New()
	var (
		active  int
		maxSeen int
		mux     sync.Mutex
		wg      sync.WaitGroup
	)
	result := runAsync(s)
	wg.Add(50)
	for i := 0; i < 50; i++ {
		go s.Execute(func() {
			defer wg.Done()
			mux.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mux.Unlock()
			time.Sleep(time.Millisecond)
			mux.Lock()
			active--
			mux.Unlock()
		})
	}
	wg.Wait()
	s.Terminate()
	require.NoError(t, awaitResult(t, result))
	assert.Equal(t, 1, maxSeen, "Tasks should never run concurrently")
}

func TestSelectServer_ReadDescriptor(t *testing.T) {
	t.Run("Handler called on readiness", func(t *testing.T) {
		s := New()
		desc := &testDescriptor{ch: make(chan struct{}, 1)}
		calls := make(chan struct{}, 10)
		require.NoError(t, s.AddReadDescriptor(desc, func() error {
			calls <- struct{}{}
			return nil
		}))
		result := runAsync(s)
		desc.ch <- struct{}{}
		desc.ch <- struct{}{}
		for i := 0; i < 2; i++ {
			select {
			case <-calls:
			case <-time.After(testTimeout):
				t.Fatal("Handler was not called")
			}
		}
		s.Terminate()
		assert.NoError(t, awaitResult(t, result))
		s.Await()
	})
	t.Run("Handler error stops Run", func(t *testing.T) {
		s := New()
		errLost := errors.New("connection lost")
		desc := &testDescriptor{ch: make(chan struct{})}
		require.NoError(t, s.AddReadDescriptor(desc, func() error {
			return errLost
		}))
		result := runAsync(s)
		close(desc.ch)
		assert.ErrorIs(t, awaitResult(t, result), errLost)
		s.Terminate()
		s.Await()
	})
	t.Run("Rejected after termination", func(t *testing.T) {
		s := New()
		s.Terminate()
		err := s.AddReadDescriptor(&testDescriptor{ch: make(chan struct{})}, func() error { return nil })
		assert.ErrorIs(t, err, ErrTerminated)
	})
}

func TestSelectServer_RunTwice(t *testing.T) {
	s := New()
	started := make(chan struct{})
	s.Execute(func() { close(started) })
	result := runAsync(s)
	<-started
	assert.ErrorIs(t, s.Run(), ErrAlreadyRunning)
	s.Terminate()
	assert.NoError(t, awaitResult(t, result))
}

func TestFactory(t *testing.T) {
	reactor, err := Factory()()
	require.NoError(t, err)
	assert.IsType(t, &SelectServer{}, reactor)
}
