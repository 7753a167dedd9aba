package realtime

import (
	"encoding/json"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(id string) *Client {
	return &Client{ID: id, send: make(chan WSMessage, 8)}
}

func drain(c *Client) []WSMessage {
	var out []WSMessage
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestHubBroadcastReachesAllClients(t *testing.T) {
	h := NewHub(zap.NewNop(), "origin-1", nil, nil)
	a := newTestClient("a")
	b := newTestClient("b")
	h.Register(a)
	h.Register(b)

	h.Broadcast("poll-status", map[string]bool{"canAskNew": true})

	for _, c := range []*Client{a, b} {
		msgs := drain(c)
		if len(msgs) != 1 || msgs[0].Event != "poll-status" {
			t.Errorf("client %s received %v", c.ID, msgs)
		}
	}
}

func TestHubSendToTargetsOneClient(t *testing.T) {
	h := NewHub(zap.NewNop(), "origin-1", nil, nil)
	a := newTestClient("a")
	b := newTestClient("b")
	h.Register(a)
	h.Register(b)

	h.SendTo("a", "kicked", struct{}{})

	if msgs := drain(a); len(msgs) != 1 || msgs[0].Event != "kicked" {
		t.Errorf("target received %v", msgs)
	}
	if msgs := drain(b); len(msgs) != 0 {
		t.Errorf("bystander received %v", msgs)
	}

	// unknown target is a no-op
	h.SendTo("zzz", "kicked", struct{}{})
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	h := NewHub(zap.NewNop(), "origin-1", nil, nil)
	a := newTestClient("a")
	h.Register(a)
	h.Unregister(a)

	h.Broadcast("participants:update", []string{})

	if msgs := drain(a); len(msgs) != 0 {
		t.Errorf("unregistered client received %v", msgs)
	}
	if len(h.clients) != 0 {
		t.Errorf("clients = %d, want 0", len(h.clients))
	}
}

type recordingPublisher struct {
	events []string
}

func (p *recordingPublisher) PublishClassroomEvent(origin, event string, payload []byte) error {
	p.events = append(p.events, event)
	return nil
}

type stubSubscriber struct {
	handler func(origin, event string, payload []byte)
}

func (s *stubSubscriber) SubscribeClassroom(handler func(origin, event string, payload []byte)) (func(), error) {
	s.handler = handler
	return func() {}, nil
}

func TestHubPublishesBroadcastsAndSkipsOwnOrigin(t *testing.T) {
	pub := &recordingPublisher{}
	sub := &stubSubscriber{}
	h := NewHub(zap.NewNop(), "origin-1", pub, sub)
	a := newTestClient("a")
	h.Register(a)

	h.Broadcast("chat:message", map[string]string{"text": "hi"})
	if len(pub.events) != 1 || pub.events[0] != "chat:message" {
		t.Errorf("published %v", pub.events)
	}
	drain(a)

	// an event echoed back with our own origin must not be re-delivered
	data, _ := json.Marshal(map[string]string{"text": "hi"})
	sub.handler("origin-1", "chat:message", data)
	if msgs := drain(a); len(msgs) != 0 {
		t.Errorf("own-origin echo delivered %v", msgs)
	}

	// events from another instance are delivered locally
	sub.handler("origin-2", "chat:message", data)
	if msgs := drain(a); len(msgs) != 1 {
		t.Errorf("remote event delivered %v", msgs)
	}
}
