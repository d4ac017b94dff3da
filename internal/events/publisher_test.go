package events

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	event := NewEvent(TypeLevelUp, LevelUpData{StudentID: 1, PreviousLevel: 1, NewLevel: 2})

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, TypeLevelUp, event.Type)
	assert.Equal(t, EventSource, event.Source)
	assert.Equal(t, EventVersion, event.Version)
	assert.False(t, event.Timestamp.IsZero())
}

func TestMockEventPublisher(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	publisher := NewMockEventPublisher(logger)
	ctx := context.Background()

	require.NoError(t, publisher.Publish(ctx, NewEvent(TypeXPGranted, XPGrantedData{StudentID: 1, Amount: 50})))
	require.NoError(t, publisher.Publish(ctx, NewEvent(TypeLevelUp, LevelUpData{StudentID: 1})))

	assert.Len(t, publisher.GetPublishedEvents(), 2)
	assert.Len(t, publisher.EventsOfType(TypeLevelUp), 1)

	publisher.FailWith(errors.New("broker down"))
	assert.Error(t, publisher.Publish(ctx, NewEvent(TypeXPGranted, nil)))
	assert.Len(t, publisher.GetPublishedEvents(), 2)

	publisher.ClearEvents()
	assert.Empty(t, publisher.GetPublishedEvents())
}
