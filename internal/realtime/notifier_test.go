package realtime

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []Event
	err    error
	panics bool
	block  chan struct{}
}

func (p *recordingPublisher) Publish(ctx context.Context, event Event) error {
	if p.block != nil {
		select {
		case <-p.block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if p.panics {
		panic("publisher exploded")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) published() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}

func newTestLogger() (*logrus.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := logrus.New()
	logger.SetOutput(buf)
	return logger, buf
}

func TestNotifier_Publishes(t *testing.T) {
	publisher := &recordingPublisher{}
	logger, _ := newTestLogger()
	notifier := NewNotifier(publisher, logger, time.Second)

	notifier.Notify("occurrence:new", map[string]string{"id": "42"})
	notifier.Wait()

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, "occurrence:new", events[0].Name)
	assert.JSONEq(t, `{"id":"42"}`, string(events[0].Payload))
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestNotifier_FailureIsLogged(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("redis unavailable")}
	logger, buf := newTestLogger()
	notifier := NewNotifier(publisher, logger, time.Second)

	notifier.Notify("occurrence:update", map[string]int{"version": 2})
	notifier.Wait()

	assert.Contains(t, buf.String(), "Failed to publish event")
}

func TestNotifier_PanicIsRecovered(t *testing.T) {
	publisher := &recordingPublisher{panics: true}
	logger, buf := newTestLogger()
	notifier := NewNotifier(publisher, logger, time.Second)

	assert.NotPanics(t, func() {
		notifier.Notify("occurrence:update", nil)
		notifier.Wait()
	})
	assert.Contains(t, buf.String(), "Event publisher panicked")
}

func TestNotifier_DoesNotBlockCaller(t *testing.T) {
	publisher := &recordingPublisher{block: make(chan struct{})}
	logger, _ := newTestLogger()
	notifier := NewNotifier(publisher, logger, time.Second)

	returned := make(chan struct{})
	go func() {
		notifier.Notify("occurrence:new", nil)
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("Notify blocked on a slow publisher")
	}

	close(publisher.block)
	notifier.Wait()
	assert.Len(t, publisher.published(), 1)
}

func TestNotifier_TimeoutBoundsPublish(t *testing.T) {
	publisher := &recordingPublisher{block: make(chan struct{})}
	logger, buf := newTestLogger()
	notifier := NewNotifier(publisher, logger, 20*time.Millisecond)

	notifier.Notify("occurrence:new", nil)
	notifier.Wait()

	assert.Empty(t, publisher.published())
	assert.Contains(t, buf.String(), "deadline exceeded")
}

func TestNotifier_UnencodablePayload(t *testing.T) {
	publisher := &recordingPublisher{}
	logger, buf := newTestLogger()
	notifier := NewNotifier(publisher, logger, time.Second)

	notifier.Notify("occurrence:new", make(chan int))
	notifier.Wait()

	assert.Empty(t, publisher.published())
	assert.Contains(t, buf.String(), "Failed to encode event payload")
}
