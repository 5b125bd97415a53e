package session

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Transcript roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// OfflineReply is recorded when the chat endpoint cannot be reached.
const OfflineReply = "Network issue, operating in offline academic mode."

// Message is one transcript entry.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Transcript persists the chat history under KeyChatHistory.
type Transcript struct {
	mu    sync.Mutex
	store Storage
	now   func() time.Time
}

// NewTranscript returns a Transcript backed by store.
func NewTranscript(store Storage) *Transcript {
	return &Transcript{store: store, now: time.Now}
}

// Greeting is the first bot message of a fresh transcript.
func Greeting(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Scholar"
	}
	return fmt.Sprintf("Hello %s! I'm your CourseCompass Academic Assistant. How may I assist you today?", name)
}

// Load returns the stored history, or a single greeting addressed to name when
// nothing is stored.
func (t *Transcript) Load(name string) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var msgs []Message
	ok, err := getJSON(t.store, KeyChatHistory, &msgs)
	if err != nil {
		return nil, err
	}
	if !ok || len(msgs) == 0 {
		return []Message{t.greeting(name)}, nil
	}
	return msgs, nil
}

// Append adds entries to the stored history, seeding the greeting first when empty.
func (t *Transcript) Append(name string, entries ...Message) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var msgs []Message
	if _, err := getJSON(t.store, KeyChatHistory, &msgs); err != nil {
		return nil, err
	}
	if len(msgs) == 0 {
		msgs = append(msgs, t.greeting(name))
	}
	now := t.now().UTC()
	for _, e := range entries {
		if e.Timestamp.IsZero() {
			e.Timestamp = now
		}
		msgs = append(msgs, e)
	}
	if err := setJSON(t.store, KeyChatHistory, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Reset replaces the history with a fresh greeting.
func (t *Transcript) Reset(name string) ([]Message, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msgs := []Message{t.greeting(name)}
	if err := setJSON(t.store, KeyChatHistory, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// Clear removes the stored history.
func (t *Transcript) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.store.Remove(KeyChatHistory)
}

func (t *Transcript) greeting(name string) Message {
	return Message{Role: RoleBot, Content: Greeting(name), Timestamp: t.now().UTC()}
}
