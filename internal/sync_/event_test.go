package sync_

import (
	"sync"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

func isClosed(ch <-chan struct{}) bool {
	select {
	case <-ch:
		return true
	default:
		return false
	}
}

func TestEvent(t *testing.T) {
	assert := assert_.New(t)
	var e Event
	assert.False(e.IsSet())
	wait := e.Wait()
	assert.False(isClosed(wait))

	assert.True(e.Set())
	assert.True(e.IsSet())
	assert.True(isClosed(wait), "existing waiters are released")
	assert.True(isClosed(e.Wait()), "later waiters don't block")

	assert.False(e.Set(), "only the first Set reports a change")
	assert.True(e.IsSet())
}

func TestEvent_ManyWaiters(t *testing.T) {
	assert := assert_.New(t)
	e := NewEvent()
	var wg sync.WaitGroup
	var released sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		released.Add(1)
		go func() {
			wg.Done()
			<-e.Wait()
			released.Done()
		}()
	}
	wg.Wait()

	done := make(chan struct{})
	go func() {
		released.Wait()
		close(done)
	}()
	select {
	case <-done:
		assert.Fail("waiters should still be blocked")
	case <-time.After(50 * time.Millisecond):
	}

	// Racing setters: exactly one wins
	var wins sync.WaitGroup
	var count Mutexed[int]
	for i := 0; i < 10; i++ {
		wins.Add(1)
		go func() {
			defer wins.Done()
			if e.Set() {
				_ = count.Locked(func(n *int) error {
					*n++
					return nil
				})
			}
		}()
	}
	wins.Wait()
	assert.Equal(1, count.Get())

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		assert.Fail("waiters should have been released")
	}
}
