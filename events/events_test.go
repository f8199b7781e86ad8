package events

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/cate-nduta/Lash-Business-sub009/logger"
)

func TestMain(m *testing.M) {
	logger.InitLoggers()
	os.Exit(m.Run())
}

type countingNotifier struct {
	received []Event
}

func (c *countingNotifier) Notify(_ context.Context, e Event) {
	c.received = append(c.received, e)
}

func TestMultiNotifier(t *testing.T) {
	first := &countingNotifier{}
	second := &countingNotifier{}
	multi := MultiNotifier{first, LogNotifier{}, second}

	event := Event{
		Name:      PaidInFull,
		BookingID: uuid.New(),
		Service:   "Classic Full Set",
		Date:      "2026-09-15",
		TimeSlot:  "10:00",
	}
	multi.Notify(context.Background(), event)

	// every collaborator sees the event
	assert.Equal(t, []Event{event}, first.received)
	assert.Equal(t, []Event{event}, second.received)
}
