package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

const tokenField = "token"

var ErrNotObject = errors.New("session: value is not a JSON object")

// Session is the persisted identity: every user field the server has returned,
// merged over time, plus the bearer token. Fields the typed User view does not
// know about are kept as-is.
type Session struct {
	fields map[string]json.RawMessage
}

// NewSession builds a session from a user object and a token.
func NewSession(user json.RawMessage, token string) (*Session, error) {
	s := &Session{fields: map[string]json.RawMessage{}}
	if len(bytes.TrimSpace(user)) > 0 && !isNull(user) {
		if err := s.mergeAll(user, false); err != nil {
			return nil, err
		}
	}
	raw, err := json.Marshal(token)
	if err != nil {
		return nil, err
	}
	s.fields[tokenField] = raw
	return s, nil
}

// Merge overlays the keys of patch onto the session. Keys absent from patch
// are left alone and the token is never replaced.
func (s *Session) Merge(patch json.RawMessage) error {
	if s.fields == nil {
		s.fields = map[string]json.RawMessage{}
	}
	return s.mergeAll(patch, false)
}

func (s *Session) mergeAll(patch json.RawMessage, withToken bool) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(patch, &obj); err != nil {
		return fmt.Errorf("%w: %v", ErrNotObject, err)
	}
	if obj == nil {
		return ErrNotObject
	}
	for k, v := range obj {
		if k == tokenField && !withToken {
			continue
		}
		s.fields[k] = append(json.RawMessage(nil), v...)
	}
	return nil
}

// Token returns the bearer token, or "" if none is stored.
func (s *Session) Token() string {
	if s == nil {
		return ""
	}
	var tok string
	if raw, ok := s.fields[tokenField]; ok {
		_ = json.Unmarshal(raw, &tok)
	}
	return tok
}

// Valid reports whether the session carries a token. A session without one
// counts as unauthenticated.
func (s *Session) Valid() bool {
	return s.Token() != ""
}

// User decodes the typed view of the stored fields.
func (s *Session) User() User {
	var u User
	if s == nil {
		return u
	}
	b, err := json.Marshal(s.fields)
	if err != nil {
		return u
	}
	_ = json.Unmarshal(b, &u)
	return u
}

func (s *Session) Role() Role {
	return s.User().Role
}

// Field returns a raw stored field.
func (s *Session) Field(name string) (json.RawMessage, bool) {
	if s == nil {
		return nil, false
	}
	v, ok := s.fields[name]
	return v, ok
}

// Clone returns a deep copy.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := &Session{fields: make(map[string]json.RawMessage, len(s.fields))}
	for k, v := range s.fields {
		c.fields[k] = append(json.RawMessage(nil), v...)
	}
	return c
}

func (s Session) MarshalJSON() ([]byte, error) {
	if s.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(s.fields)
}

func (s *Session) UnmarshalJSON(b []byte) error {
	s.fields = map[string]json.RawMessage{}
	return s.mergeAll(b, true)
}

func isNull(b json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(b), []byte("null"))
}
