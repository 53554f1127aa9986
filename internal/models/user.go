package models

import "time"

// User is the authenticated account profile returned by the backend.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Session pairs a bearer token with the user it authenticates. It is persisted
// locally so the signed-in state survives restarts.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// Valid reports whether the session carries enough data to be usable.
func (s *Session) Valid() bool {
	return s != nil && s.Token != "" && s.User.ID != ""
}

// Document is a local file staged for upload. Content is held in memory only
// until the pair has been submitted for evaluation.
type Document struct {
	Name    string
	Content []byte
}

// Size returns the content length in bytes.
func (d Document) Size() int {
	return len(d.Content)
}
