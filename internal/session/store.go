// Package session implements the per-phone-number session store: the
// account binding and verification state consulted by the intent router's
// verification gate.
//
// Sessions are created on first contact and live for the process lifetime;
// there is no removal operation. Verified is monotonic: once confirmed it
// is never cleared.
package session

import (
	"log/slog"
	"sync"
)

// VerificationKind names the class of operation a pending verification
// round applies to.
type VerificationKind string

const (
	KindNone  VerificationKind = ""
	KindRead  VerificationKind = "read"
	KindWrite VerificationKind = "write"
)

// Session is the per-phone record of account binding and verification
// state. Fields are owned by the Store; callers receive snapshots.
type Session struct {
	Phone     string
	AccountID string
	Verified  bool

	// Pending is the verification kind a challenge was last issued
	// for, or KindNone.
	Pending VerificationKind
}

// Store holds all sessions keyed by phone number.
// All exported methods are safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{sessions: make(map[string]*Session)}
}

// GetOrCreate returns the session for phone, creating it with the supplied
// account binding and verification state if none exists. The call is
// idempotent: an existing session is returned unchanged and the accountID
// and verified arguments are ignored.
func (s *Store) GetOrCreate(phone, accountID string, verified bool) Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sess, ok := s.sessions[phone]; ok {
		return *sess
	}
	sess := &Session{
		Phone:     phone,
		AccountID: accountID,
		Verified:  verified,
	}
	s.sessions[phone] = sess
	slog.Debug("session created", "phone", phone, "account", accountID)
	return *sess
}

// RequestVerification marks the session as awaiting a verification round
// for the given kind. A no-op with a warning when the phone has no session.
func (s *Store) RequestVerification(phone string, kind VerificationKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[phone]
	if !ok {
		slog.Warn("verification requested for unknown session", "phone", phone, "kind", kind)
		return
	}
	sess.Pending = kind
}

// ConfirmVerification marks the session verified and clears the pending
// kind. Verified is never cleared afterwards. A no-op with a warning when
// the phone has no session.
func (s *Store) ConfirmVerification(phone string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[phone]
	if !ok {
		slog.Warn("verification confirmed for unknown session", "phone", phone)
		return
	}
	sess.Verified = true
	sess.Pending = KindNone
}

// Get returns a snapshot of the session for phone, if any.
func (s *Store) Get(phone string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[phone]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Len returns the number of sessions in the store.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
