package async

import (
	"errors"
	"testing"
	"time"

	assert_ "github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	assert := assert_.New(t)
	release := make(chan struct{})
	result := Run(func() string {
		<-release
		return "done"
	})
	select {
	case <-result:
		assert.Fail("Run should not block on f, nor return before it finishes")
	case <-time.After(10 * time.Millisecond):
	}
	close(release)
	assert.Equal("done", <-result)
}

func TestRun_NobodyWaiting(t *testing.T) {
	finished := make(chan struct{})
	// The result is buffered, so f's goroutine exits even if nothing reads it
	_ = Run(func() error {
		defer close(finished)
		return errors.New("ignored")
	})
	select {
	case <-finished:
	case <-time.After(time.Second):
		assert_.Fail(t, "goroutine did not finish")
	}
}
