package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/HVQuoc/Tessenger/internal/auth"
	"github.com/HVQuoc/Tessenger/internal/chat"
	"github.com/HVQuoc/Tessenger/internal/config"
	"github.com/HVQuoc/Tessenger/internal/message"
)

// memStore is an in-memory message store for connection tests.
type memStore struct {
	mu       sync.Mutex
	messages []message.Message
}

func (s *memStore) Create(_ context.Context, senderID, recipientID, text string) (message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msg := message.Message{
		ID:          fmt.Sprintf("m-%d", len(s.messages)+1),
		SenderID:    senderID,
		RecipientID: recipientID,
		Text:        text,
		CreatedAt:   time.Now(),
	}
	s.messages = append(s.messages, msg)
	return msg, nil
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

type wsFixture struct {
	server *httptest.Server
	store  *memStore
}

func newWSFixture(t *testing.T) *wsFixture {
	t.Helper()
	return newWSFixtureWithChat(t, config.ChatConfig{
		HeartbeatInterval: "1h", // keep the heartbeat out of handshake tests
		PongTimeout:       "1h",
	})
}

func newWSFixtureWithChat(t *testing.T, cfg config.ChatConfig) *wsFixture {
	t.Helper()
	store := &memStore{}
	chatService := chat.NewService(slog.Default(), store, cfg)
	e := echo.New()
	NewChatHandler(slog.Default(), chatService, testSecret, "").Register(e)

	server := httptest.NewServer(e)
	t.Cleanup(server.Close)
	return &wsFixture{server: server, store: store}
}

func (f *wsFixture) dial(t *testing.T, identity auth.Identity) *websocket.Conn {
	t.Helper()
	token, _, err := auth.GenerateToken(identity, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	header := http.Header{}
	header.Set("Cookie", auth.CookieName+"="+token)
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readPresence(t *testing.T, conn *websocket.Conn) chat.PresenceEvent {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read presence: %v", err)
	}
	var event chat.PresenceEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		t.Fatalf("unmarshal presence %s: %v", payload, err)
	}
	return event
}

func TestConnectWithoutTokenRejected(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected handshake to fail without token")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 handshake response, got %+v", resp)
	}
}

func TestConnectAnnouncesPresence(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	alice := f.dial(t, auth.Identity{UserID: "u1", Username: "alice"})

	event := readPresence(t, alice)
	if len(event.Online) != 1 || event.Online[0].Username != "alice" {
		t.Fatalf("expected alice online, got %+v", event.Online)
	}

	bob := f.dial(t, auth.Identity{UserID: "u2", Username: "bob"})

	// Both the existing and the new connection see the updated set.
	event = readPresence(t, alice)
	if len(event.Online) != 2 {
		t.Fatalf("expected 2 online after bob connects, got %+v", event.Online)
	}
	event = readPresence(t, bob)
	if len(event.Online) != 2 {
		t.Fatalf("expected bob to see 2 online, got %+v", event.Online)
	}
}

func TestMessageRoutedToRecipient(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	alice := f.dial(t, auth.Identity{UserID: "u1", Username: "alice"})
	readPresence(t, alice)
	bob := f.dial(t, auth.Identity{UserID: "u2", Username: "bob"})
	readPresence(t, alice)
	readPresence(t, bob)

	payload, _ := json.Marshal(chat.InboundEvent{Message: chat.InboundMessage{Recipient: "u2", Text: "hi"}})
	if err := alice.WriteMessage(websocket.TextMessage, payload); err != nil {
		t.Fatalf("write: %v", err)
	}

	_ = bob.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := bob.ReadMessage()
	if err != nil {
		t.Fatalf("read delivery: %v", err)
	}
	var delivered chat.DeliveryEvent
	if err := json.Unmarshal(raw, &delivered); err != nil {
		t.Fatalf("unmarshal delivery %s: %v", raw, err)
	}
	if delivered.Sender != "u1" || delivered.Recipient != "u2" || delivered.Text != "hi" {
		t.Errorf("unexpected delivery: %+v", delivered)
	}
	if f.store.count() != 1 {
		t.Errorf("expected 1 persisted message, got %d", f.store.count())
	}
}

func TestHeartbeatTimeoutEvictsAndReannounces(t *testing.T) {
	t.Parallel()

	f := newWSFixtureWithChat(t, config.ChatConfig{
		HeartbeatInterval: "50ms",
		PongTimeout:       "50ms",
	})
	alice := f.dial(t, auth.Identity{UserID: "u1", Username: "alice"})
	readPresence(t, alice)
	bob := f.dial(t, auth.Identity{UserID: "u2", Username: "bob"})
	readPresence(t, alice)
	readPresence(t, bob)

	// Bob keeps reading but never answers pings, so the server's monitor
	// must declare the connection dead and evict it.
	bob.SetPingHandler(func(string) error { return nil })
	go func() {
		for {
			if _, _, err := bob.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Alice answers pings by reading; she must receive a presence event
	// without bob once the heartbeat eviction fires.
	deadline := time.Now().Add(5 * time.Second)
	for {
		event := readPresence(t, alice)
		if len(event.Online) == 1 && event.Online[0].Username == "alice" {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("bob never evicted, last online set %+v", event.Online)
		}
	}

	// The dead connection's read loop also unwinds and evicts, but the
	// registry removal already happened, so no duplicate event follows.
	_ = alice.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	if _, payload, err := alice.ReadMessage(); err == nil {
		t.Fatalf("unexpected extra push after eviction: %s", payload)
	}
}

func TestDisconnectReannouncesPresence(t *testing.T) {
	t.Parallel()

	f := newWSFixture(t)
	alice := f.dial(t, auth.Identity{UserID: "u1", Username: "alice"})
	readPresence(t, alice)
	bob := f.dial(t, auth.Identity{UserID: "u2", Username: "bob"})
	readPresence(t, alice)
	readPresence(t, bob)

	_ = bob.Close()

	event := readPresence(t, alice)
	if len(event.Online) != 1 || event.Online[0].Username != "alice" {
		t.Fatalf("expected only alice after bob disconnects, got %+v", event.Online)
	}
}
