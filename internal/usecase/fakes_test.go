package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"

	"NewsRelay/internal/domain"
)

type memoryLedger struct {
	mu     sync.Mutex
	ids    map[string]bool
	hasErr map[string]error
	writes int
}

func newMemoryLedger(ids ...string) *memoryLedger {
	l := &memoryLedger{ids: map[string]bool{}, hasErr: map[string]error{}}
	for _, id := range ids {
		l.ids[id] = true
	}
	return l
}

func (l *memoryLedger) Has(_ context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.hasErr[id]; err != nil {
		return false, err
	}
	return l.ids[id], nil
}

func (l *memoryLedger) Record(_ context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writes++
	l.ids[id] = true
	return nil
}

func (l *memoryLedger) contains(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ids[id]
}

type sentMessage struct {
	channel string
	text    string
}

// recordingSender fails every send whose channel and text match an entry in
// failures.
type recordingSender struct {
	mu       sync.Mutex
	sent     []sentMessage
	failures map[string]string
}

func (s *recordingSender) Send(_ context.Context, channel string, msg domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if marker, ok := s.failures[channel]; ok && (marker == "" || strings.Contains(msg.Text, marker)) {
		return &domain.TransportError{Op: "sendMessage", StatusCode: 400, Body: `{"ok":false}`}
	}
	s.sent = append(s.sent, sentMessage{channel: channel, text: msg.Text})
	return nil
}

func (s *recordingSender) texts(channel string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for _, m := range s.sent {
		if m.channel == channel {
			out = append(out, m.text)
		}
	}
	return out
}

type staticSource struct {
	stubs []domain.ArticleStub
}

func (s staticSource) Fetch(context.Context) []domain.ArticleStub {
	return append([]domain.ArticleStub(nil), s.stubs...)
}

type stubNormalizer struct {
	calls []string
}

func (n *stubNormalizer) Normalize(_ context.Context, stub domain.ArticleStub) domain.Article {
	n.calls = append(n.calls, stub.ID)
	return domain.Article{ID: stub.ID, Title: stub.Title, Link: stub.Link, Body: "Body of " + stub.Title + "\n\n"}
}

var errLedgerDown = errors.New("ledger down")
