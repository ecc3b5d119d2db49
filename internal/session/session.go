// Package session keeps a small per-browser record between requests: a
// read-once flash confirmation and the status form fields that survive a
// successful update.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// CookieName is the cookie carrying the session id.
const CookieName = "sid"

const keyPrefix = "session:"

// Store is the key-value surface sessions are persisted in.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// StatusDraft holds the status form fields kept after an update.
type StatusDraft struct {
	NewStatus string `json:"new_status"`
	ChangedBy string `json:"changed_by"`
}

type record struct {
	Flash  string                 `json:"flash,omitempty"`
	Drafts map[string]StatusDraft `json:"drafts,omitempty"`
}

// Session is one browser's record. It is not safe for concurrent use; each
// request loads its own copy.
type Session struct {
	ID    string
	data  record
	dirty bool
}

// SetFlash queues a confirmation for the next rendered page.
func (s *Session) SetFlash(msg string) {
	s.data.Flash = msg
	s.dirty = true
}

// PopFlash returns the pending confirmation and clears it.
func (s *Session) PopFlash() string {
	msg := s.data.Flash
	if msg != "" {
		s.data.Flash = ""
		s.dirty = true
	}
	return msg
}

// SetDraft remembers the status form fields for a ticket.
func (s *Session) SetDraft(ticketID string, draft StatusDraft) {
	if s.data.Drafts == nil {
		s.data.Drafts = make(map[string]StatusDraft)
	}
	s.data.Drafts[ticketID] = draft
	s.dirty = true
}

// Draft returns the remembered status form fields for a ticket.
func (s *Session) Draft(ticketID string) (StatusDraft, bool) {
	d, ok := s.data.Drafts[ticketID]
	return d, ok
}

// Manager loads and saves sessions keyed by the sid cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
}

// NewManager builds a manager. secure marks the cookie Secure.
func NewManager(store Store, ttl time.Duration, secure bool) *Manager {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &Manager{store: store, ttl: ttl, secure: secure}
}

// Load returns the session named by the request cookie, or a fresh one when
// the cookie is missing or its record has expired. The returned session is
// usable even when the store fails and err is set.
func (m *Manager) Load(c *fiber.Ctx) (*Session, error) {
	id := c.Cookies(CookieName)
	if _, err := uuid.Parse(id); err != nil {
		return &Session{ID: uuid.NewString()}, nil
	}

	raw, found, err := m.store.Get(c.UserContext(), keyPrefix+id)
	if err != nil {
		return &Session{ID: id}, fmt.Errorf("session: load: %w", err)
	}
	s := &Session{ID: id}
	if !found {
		return s, nil
	}
	if err := json.Unmarshal([]byte(raw), &s.data); err != nil {
		// A corrupt record is replaced rather than failing the page.
		return &Session{ID: id, dirty: true}, nil
	}
	return s, nil
}

// Save persists a changed session and refreshes the cookie.
func (m *Manager) Save(c *fiber.Ctx, s *Session) error {
	if !s.dirty {
		return nil
	}
	raw, err := json.Marshal(s.data)
	if err != nil {
		return fmt.Errorf("session: encode: %w", err)
	}
	if err := m.store.Set(c.UserContext(), keyPrefix+s.ID, string(raw), m.ttl); err != nil {
		return fmt.Errorf("session: save: %w", err)
	}
	c.Cookie(&fiber.Cookie{
		Name:     CookieName,
		Value:    s.ID,
		Path:     "/",
		MaxAge:   int(m.ttl.Seconds()),
		HTTPOnly: true,
		Secure:   m.secure,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
	s.dirty = false
	return nil
}
