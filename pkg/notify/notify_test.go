package notify

import (
	"testing"
	"time"

	"github.com/cwuctl/controller/pkg/mode"
	"github.com/stretchr/testify/assert"
)

type fakePublisher struct {
	published []string
}

func (f *fakePublisher) Publish(topic string, body []byte) error {
	f.published = append(f.published, string(body))
	return nil
}
func (f *fakePublisher) Close() error { return nil }

func TestDispatchDeduplicates(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub)
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	ev := mode.Event{Kind: mode.EventSafeMode, Message: "tank sensor unavailable"}

	n.Dispatch(now, []mode.Event{ev})
	n.Dispatch(now.Add(time.Minute), []mode.Event{ev})
	assert.Len(t, pub.published, 1, "a persisting condition alerts once")

	// condition clears, then returns
	n.Dispatch(now.Add(2*time.Minute), nil)
	n.Dispatch(now.Add(3*time.Minute), []mode.Event{ev})
	assert.Len(t, pub.published, 2)
}

func TestDispatchInfoPassesThrough(t *testing.T) {
	pub := &fakePublisher{}
	n := New(pub)
	now := time.Date(2024, 1, 8, 12, 0, 0, 0, time.UTC)

	ev := mode.Event{Kind: mode.EventInfo, Message: "mode changed"}
	n.Dispatch(now, []mode.Event{ev})
	n.Dispatch(now.Add(time.Minute), []mode.Event{ev})
	assert.Len(t, pub.published, 2)
}

func TestDispatchNilPublisherOnlyLogs(t *testing.T) {
	n := New(nil)
	now := time.Now()
	n.Dispatch(now, []mode.Event{{Kind: mode.EventEmergency, Message: "tank critical"}})
}
