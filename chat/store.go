package chat

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Responder turns a user message into the bot's reply
type Responder func(text string) string

// Options tunes a Store
type Options struct {
	ReplyDelay  time.Duration // 0 answers inline
	MaxSessions int           // 0 means unlimited
	MaxMessages int           // per session, greeting included; 0 means unlimited
	Now         func() time.Time
}

// Store holds open sessions in memory. It is safe for concurrent use.
type Store struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
	timers   map[uuid.UUID]*time.Timer
	respond  Responder
	opts     Options
}

// NewStore creates an empty store answering with respond
func NewStore(respond Responder, opts Options) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
		timers:   make(map[uuid.UUID]*time.Timer),
		respond:  respond,
		opts:     opts,
	}
}

// Open starts a session with the bot's greeting
func (st *Store) Open() (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.opts.MaxSessions > 0 && len(st.sessions) >= st.opts.MaxSessions {
		return Session{}, ErrTooManySessions
	}

	now := st.opts.Now()
	s := &Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		LastActive: now,
		Messages:   []Message{{Sender: SenderBot, Text: Greeting, Timestamp: now}},
	}
	st.sessions[s.ID] = s
	return s.snapshot(), nil
}

// Get returns a snapshot of the session
func (st *Store) Get(id uuid.UUID) (Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	return s.snapshot(), nil
}

// Transcript renders the session as sender-labeled, timestamped text
func (st *Store) Transcript(id uuid.UUID) (string, error) {
	s, err := st.Get(id)
	if err != nil {
		return "", err
	}
	return s.Transcript(), nil
}

// Send records a user message and produces the bot reply. With a reply
// delay, a "Thinking..." placeholder is shown and replaced once the delay
// elapses; until then the session is Pending and further sends fail.
func (st *Store) Send(id uuid.UUID, text string) (Session, error) {
	text = strings.TrimSpace(text)

	st.mu.Lock()
	defer st.mu.Unlock()

	s, ok := st.sessions[id]
	if !ok {
		return Session{}, ErrSessionNotFound
	}
	if text == "" {
		return s.snapshot(), ErrEmptyMessage
	}
	if s.Pending {
		return s.snapshot(), ErrReplyPending
	}
	if st.opts.MaxMessages > 0 && len(s.Messages)+2 > st.opts.MaxMessages {
		return s.snapshot(), ErrSessionFull
	}

	now := st.opts.Now()
	s.LastActive = now
	s.Messages = append(s.Messages, Message{Sender: SenderUser, Text: text, Timestamp: now})

	if st.opts.ReplyDelay <= 0 {
		s.Messages = append(s.Messages, Message{Sender: SenderBot, Text: st.respond(text), Timestamp: now})
		return s.snapshot(), nil
	}

	s.Pending = true
	s.Messages = append(s.Messages, Message{Sender: SenderBot, Text: ThinkingText, Timestamp: now})
	st.timers[id] = time.AfterFunc(st.opts.ReplyDelay, func() {
		st.deliver(id, text)
	})
	return s.snapshot(), nil
}

// deliver swaps the placeholder for the real reply
func (st *Store) deliver(id uuid.UUID, text string) {
	reply := st.respond(text)

	st.mu.Lock()
	defer st.mu.Unlock()

	delete(st.timers, id)
	s, ok := st.sessions[id]
	if !ok || !s.Pending {
		return
	}

	if n := len(s.Messages); n > 0 && s.Messages[n-1].Sender == SenderBot && s.Messages[n-1].Text == ThinkingText {
		s.Messages = s.Messages[:n-1]
	}
	now := st.opts.Now()
	s.Messages = append(s.Messages, Message{Sender: SenderBot, Text: reply, Timestamp: now})
	s.Pending = false
	s.LastActive = now
}

// Close drops a session and cancels its pending reply
func (st *Store) Close(id uuid.UUID) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	st.drop(id)
	return nil
}

// drop removes a session; caller holds mu
func (st *Store) drop(id uuid.UUID) {
	if t, ok := st.timers[id]; ok {
		t.Stop()
		delete(st.timers, id)
	}
	delete(st.sessions, id)
}

// Sweep drops sessions idle for longer than ttl and returns how many
func (st *Store) Sweep(ttl time.Duration) int {
	st.mu.Lock()
	defer st.mu.Unlock()

	cutoff := st.opts.Now().Add(-ttl)
	removed := 0
	for id, s := range st.sessions {
		if s.LastActive.Before(cutoff) {
			st.drop(id)
			removed++
		}
	}
	return removed
}

// Count returns the number of open sessions
func (st *Store) Count() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Capacity returns the session cap, 0 when unlimited
func (st *Store) Capacity() int {
	return st.opts.MaxSessions
}

// Shutdown cancels every pending reply
func (st *Store) Shutdown() {
	st.mu.Lock()
	defer st.mu.Unlock()

	for id, t := range st.timers {
		t.Stop()
		delete(st.timers, id)
	}
}
