package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/mcdev12/gavel/go/internal/auction/events"
	"github.com/mcdev12/gavel/go/internal/models"
	"github.com/peterldowns/testy/assert"
	"github.com/peterldowns/testy/check"
)

type failingSink struct{ calls int }

func (f *failingSink) Name() string { return "failing" }

func (f *failingSink) Publish(context.Context, events.Event) error {
	f.calls++
	return errors.New("unavailable")
}

type memorySink struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *memorySink) Name() string { return "memory" }

func (m *memorySink) Publish(_ context.Context, ev events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memorySink) types() []events.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Type, 0, len(m.events))
	for _, ev := range m.events {
		out = append(out, ev.Type)
	}
	return out
}

func TestFanoutKeepsDeliveringAfterSinkError(t *testing.T) {
	bad := &failingSink{}
	rec := &memorySink{}
	f := NewFanout(bad, rec)

	f.Publish(context.Background(), events.AuctionInitialized(models.NewSession(), time.Now()))
	f.Publish(context.Background(), events.TimerUpdated(models.NewSession(), time.Now()))

	check.Equal(t, 2, bad.calls)
	check.Equal(t, []events.Type{events.TypeAuctionInitialized, events.TypeTimerUpdated}, rec.types())
}

func TestFanoutAdd(t *testing.T) {
	f := NewFanout()
	rec := &memorySink{}
	f.Add(rec)
	f.Publish(context.Background(), events.AccountAuctionCleared(models.NewSession(), time.Now()))
	check.Equal(t, []events.Type{events.TypeAccountAuctionCleared}, rec.types())
}

func TestBuildMsg(t *testing.T) {
	ev := events.TimerUpdated(models.NewSession(), time.Now())
	msg, err := buildMsg("auction.events", ev)
	assert.NoError(t, err)

	check.Equal(t, "auction.events.TIMER_UPDATED", msg.Subject)
	check.Equal(t, ev.ID.String(), msg.Header.Get("Event-ID"))
	check.Equal(t, "TIMER_UPDATED", msg.Header.Get("Event-Type"))

	var decoded events.Event
	assert.NoError(t, json.Unmarshal(msg.Data, &decoded))
	check.Equal(t, ev.ID, decoded.ID)
}

func TestBuildMsgRejectsUnknownType(t *testing.T) {
	ev := events.TimerUpdated(models.NewSession(), time.Now())
	ev.Type = "PICK_MADE"
	_, err := buildMsg("auction.events", ev)
	check.Error(t, err)
}

func TestStreamConfigCoversEverySubject(t *testing.T) {
	cfg := DefaultJetStreamConfig()
	sc := streamConfig(cfg)
	check.Equal(t, []string{"auction.events.>"}, sc.Subjects)
	check.True(t, isStreamConfigEqual(sc, streamConfig(cfg)))

	cfg.MaxAge = time.Hour
	check.False(t, isStreamConfigEqual(sc, streamConfig(cfg)))
}
