package shared

import "github.com/google/uuid"

// FlashMessage is a one-shot notice shown on the next rendered page.
type FlashMessage struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

// Session is the per-request view of a stored session record. Mutators mark
// it dirty; SessionManager.Commit persists dirty sessions.
type Session struct {
	ID string

	values  map[string]string
	user    string
	flashes []FlashMessage

	previousID string
	isNew      bool
	dirty      bool
	destroyed  bool
}

// record is the JSON body stored under session:<id>.
type record struct {
	Values  map[string]string `json:"values"`
	User    string            `json:"user"`
	Flashes []FlashMessage    `json:"flashes"`
}

func newSession() *Session {
	return &Session{
		ID:     uuid.NewString(),
		values: map[string]string{},
		isNew:  true,
		dirty:  true,
	}
}

func restoreSession(id string, rec record) *Session {
	if rec.Values == nil {
		rec.Values = map[string]string{}
	}
	return &Session{ID: id, values: rec.Values, user: rec.User, flashes: rec.Flashes}
}

func (s *Session) record() record {
	return record{Values: s.values, User: s.user, Flashes: s.flashes}
}

// Set stores value under key.
func (s *Session) Set(key, value string) {
	if s.values == nil {
		s.values = map[string]string{}
	}
	if cur, ok := s.values[key]; ok && cur == value {
		return
	}
	s.values[key] = value
	s.dirty = true
}

// Get returns the value under key, empty when absent.
func (s *Session) Get(key string) string {
	return s.values[key]
}

// Delete removes key.
func (s *Session) Delete(key string) {
	if _, ok := s.values[key]; ok {
		delete(s.values, key)
		s.dirty = true
	}
}

// SetUser signs name in.
func (s *Session) SetUser(name string) {
	s.user = name
	s.dirty = true
}

// User returns the signed-in username, empty when anonymous.
func (s *Session) User() string {
	return s.user
}

// AddFlash queues msg for the next page.
func (s *Session) AddFlash(msg FlashMessage) {
	s.flashes = append(s.flashes, msg)
	s.dirty = true
}

// PopFlash removes and returns the oldest queued flash, or nil.
func (s *Session) PopFlash() *FlashMessage {
	if len(s.flashes) == 0 {
		return nil
	}
	msg := s.flashes[0]
	s.flashes = s.flashes[1:]
	s.dirty = true
	return &msg
}
