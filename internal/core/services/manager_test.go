package services

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"github.com/KelvCodes/real-time-chat-app/internal/app/registry"
	"github.com/KelvCodes/real-time-chat-app/internal/core/domain"
)

type lifecycle struct {
	reg      *registry.Registry
	manager  *ManagerService
	router   *MessageRouter
	messages *MessageService
	users    *memUserRepo
	store    *memMessageRepo
}

func newLifecycle() *lifecycle {
	reg := registry.NewRegistry()
	presence := NewPresenceService(discardLog, reg)
	router := NewMessageRouter(discardLog, reg)
	users := newMemUserRepo()
	store := &memMessageRepo{}
	return &lifecycle{
		reg:      reg,
		manager:  NewManagerService(discardLog, reg, presence),
		router:   router,
		messages: NewMessageService(discardLog, users, store, nil, router, reg),
		users:    users,
		store:    store,
	}
}

func lastPresence(t *testing.T, c *recordingClient) []string {
	t.Helper()
	frames := c.Frames()
	for i := len(frames) - 1; i >= 0; i-- {
		var probe struct{ Type string }
		_ = json.Unmarshal(frames[i], &probe)
		if probe.Type == domain.TypePresence {
			return decodePresence(t, frames[i])
		}
	}
	t.Fatalf("%s: no presence event received", c.id)
	return nil
}

func messageEvents(t *testing.T, c *recordingClient) []domain.Message {
	t.Helper()
	var out []domain.Message
	for _, f := range c.Frames() {
		var ev domain.MessageEvent
		if err := json.Unmarshal(f, &ev); err != nil {
			t.Fatalf("decode frame: %v", err)
		}
		if ev.Type == domain.TypeMessage {
			out = append(out, ev.Message)
		}
	}
	return out
}

// TestConnectReplacesAndClosesPrevious verifies last-writer-wins: the older
// connection is closed, and its late disconnect does not evict the newer one.
func TestConnectReplacesAndClosesPrevious(t *testing.T) {
	lc := newLifecycle()
	ctx := context.Background()
	first, second := newRecordingClient("alice"), newRecordingClient("alice")

	lc.manager.HandleConnect(ctx, "alice", first)
	lc.manager.HandleConnect(ctx, "alice", second)

	if !first.IsClosed() {
		t.Error("replaced connection should be closed")
	}
	if second.IsClosed() {
		t.Error("newest connection must stay open")
	}

	lc.manager.HandleDisconnect(ctx, "alice", first)
	if got, ok := lc.reg.Get("alice"); !ok || got != second {
		t.Fatal("stale disconnect evicted the newer connection")
	}
	if got := lastPresence(t, second); !reflect.DeepEqual(got, []string{"alice"}) {
		t.Errorf("expected alice still online, got %v", got)
	}
}

func TestDisconnectAnnouncesEvenWithoutRemoval(t *testing.T) {
	lc := newLifecycle()
	ctx := context.Background()
	bob := newRecordingClient("bob")
	lc.manager.HandleConnect(ctx, "bob", bob)
	before := len(bob.Frames())

	lc.manager.HandleDisconnect(ctx, "ghost", newRecordingClient("ghost"))
	if len(bob.Frames()) != before+1 {
		t.Errorf("expected an announcement after a no-op disconnect")
	}
}

// TestPresenceCountAfterMixedOperations checks that the online set equals the
// registrations minus the deregistrations that matched a current handle.
func TestPresenceCountAfterMixedOperations(t *testing.T) {
	lc := newLifecycle()
	ctx := context.Background()
	observer := newRecordingClient("observer")
	lc.manager.HandleConnect(ctx, "observer", observer)

	u1, u2 := newRecordingClient("u1"), newRecordingClient("u2")
	u2b := newRecordingClient("u2")
	lc.manager.HandleConnect(ctx, "u1", u1)
	lc.manager.HandleConnect(ctx, "u2", u2)
	lc.manager.HandleConnect(ctx, "u2", u2b)
	lc.manager.HandleDisconnect(ctx, "u2", u2) // stale
	lc.manager.HandleDisconnect(ctx, "u1", u1) // matches

	want := []string{"observer", "u2"}
	if got := lastPresence(t, observer); !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if !lc.manager.IsOnline("u2") || lc.manager.IsOnline("u1") {
		t.Error("IsOnline disagrees with registry")
	}
}

// TestTwoPartyScenario walks through connect, message, disconnect, message.
func TestTwoPartyScenario(t *testing.T) {
	lc := newLifecycle()
	ctx := context.Background()
	lc.users.users["A"] = &domain.User{ID: "A", FullName: "Ann", Email: "a@x.io"}
	lc.users.users["B"] = &domain.User{ID: "B", FullName: "Ben", Email: "b@x.io"}
	a, b := newRecordingClient("A"), newRecordingClient("B")

	lc.manager.HandleConnect(ctx, "A", a)
	lc.manager.HandleConnect(ctx, "B", b)
	for _, c := range []*recordingClient{a, b} {
		if got := lastPresence(t, c); !reflect.DeepEqual(got, []string{"A", "B"}) {
			t.Fatalf("%s: expected presence {A,B}, got %v", c.id, got)
		}
	}

	sent, err := lc.messages.SendMessage(ctx, "B", "A", "hello A", "")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	got := messageEvents(t, a)
	if len(got) != 1 || got[0].ID != sent.ID || got[0].Text != "hello A" ||
		got[0].SenderID != "B" || got[0].ReceiverID != "A" || !got[0].CreatedAt.Equal(sent.CreatedAt) {
		t.Fatalf("A did not receive the persisted message: %+v", got)
	}
	if len(messageEvents(t, b)) != 0 {
		t.Error("B must not receive its own message")
	}

	a.Close()
	lc.manager.HandleDisconnect(ctx, "A", a)
	if got := lastPresence(t, b); !reflect.DeepEqual(got, []string{"B"}) {
		t.Errorf("expected presence {B}, got %v", got)
	}

	framesBefore := len(b.Frames())
	second, err := lc.messages.SendMessage(ctx, "B", "A", "are you there?", "")
	if err != nil {
		t.Fatalf("send to offline user should succeed: %v", err)
	}
	if len(b.Frames()) != framesBefore {
		t.Error("no connection should receive anything for an offline receiver")
	}
	history, _ := lc.store.GetConversation(ctx, "A", "B")
	if len(history) != 2 || history[1].ID != second.ID {
		t.Errorf("expected both messages persisted, got %d", len(history))
	}
}

func TestShutdownClosesAllConnections(t *testing.T) {
	lc := newLifecycle()
	ctx := context.Background()
	a, b := newRecordingClient("a"), newRecordingClient("b")
	lc.manager.HandleConnect(ctx, "a", a)
	lc.manager.HandleConnect(ctx, "b", b)

	lc.manager.Shutdown(ctx)
	if !a.IsClosed() || !b.IsClosed() {
		t.Error("expected every connection to be closed")
	}
}
