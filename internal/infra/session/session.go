// Package session keeps the per-browser session state (authenticated
// identity and the pending error message) in an HMAC-signed cookie.
package session

import "github.com/google/uuid"

// Session is the state of one browser session. The zero value is an
// anonymous session without a pending message.
type Session struct {
	id      string
	userID  int64
	pending string
	loaded  bool
}

// Authenticated returns the user ID and true if the session carries an identity.
func (s *Session) Authenticated() (int64, bool) {
	return s.userID, s.userID != 0
}

// Login marks the session as authenticated for userID. The session is
// rotated: it gets a new ID and loses any pending message.
func (s *Session) Login(userID int64) {
	s.id = uuid.NewString()
	s.userID = userID
	s.pending = ""
}

// Logout returns the session to the anonymous state.
func (s *Session) Logout() {
	s.id = ""
	s.userID = 0
}

// ID returns the identifier assigned at login, empty for anonymous sessions.
func (s *Session) ID() string {
	return s.id
}

// SetPending stores a one-shot message to display on the next rendered page.
func (s *Session) SetPending(msg string) {
	s.pending = msg
}

// TakeAndClear returns the pending message, if any, and clears it.
func (s *Session) TakeAndClear() (string, bool) {
	msg := s.pending
	s.pending = ""

	return msg, msg != ""
}

func (s *Session) empty() bool {
	return s.userID == 0 && s.pending == ""
}
