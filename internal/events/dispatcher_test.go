package events

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDispatcherRoutesByType(t *testing.T) {
	d := NewInMemoryDispatcher()

	var completed, failed int
	d.Subscribe(EventRunCompleted, func(context.Context, Event) error {
		completed++
		return nil
	})
	d.Subscribe(EventRunFailed, func(context.Context, Event) error {
		failed++
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRunCompleted}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRunCompleted}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRunFailed}))

	assert.Equal(t, 2, completed)
	assert.Equal(t, 1, failed)
}

func TestDispatcherHandlerErrorDoesNotStopOthers(t *testing.T) {
	d := NewInMemoryDispatcher()

	var reached bool
	d.Subscribe(EventRunStarted, func(context.Context, Event) error {
		return errors.New("handler broke")
	})
	d.Subscribe(EventRunStarted, func(context.Context, Event) error {
		reached = true
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventRunStarted}))
	assert.True(t, reached)
}
