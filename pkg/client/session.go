package client

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// Credentials is what a TokenStore persists.
type Credentials struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// TokenStore persists credentials between runs. Load returns a zero value
// when nothing is stored.
type TokenStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// FileStore keeps credentials in a JSON file readable only by the owner.
type FileStore struct {
	Path string
}

func (s FileStore) Load() (Credentials, error) {
	var creds Credentials
	raw, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return creds, nil
	}
	if err != nil {
		return creds, err
	}
	if len(raw) == 0 {
		return creds, nil
	}
	err = json.Unmarshal(raw, &creds)
	return creds, err
}

func (s FileStore) Save(creds Credentials) error {
	raw, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, raw, 0o600)
}

func (s FileStore) Clear() error {
	err := os.Remove(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemoryStore is an in-process TokenStore.
type MemoryStore struct {
	mu    sync.Mutex
	creds Credentials
}

func (s *MemoryStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(creds Credentials) error {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	s.creds = Credentials{}
	s.mu.Unlock()
	return nil
}

// Session holds the signed-in user and token. It attaches itself to the
// client so every request carries the token, and a 401 clears it.
type Session struct {
	mu     sync.RWMutex
	client *Client
	store  TokenStore
	token  string
	user   *User
}

func NewSession(c *Client, store TokenStore) *Session {
	if store == nil {
		store = &MemoryStore{}
	}
	s := &Session{client: c, store: store}
	c.creds = s
	return s
}

// Load restores previously saved credentials.
func (s *Session) Load() error {
	creds, err := s.store.Load()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token, s.user = creds.Token, creds.User
	s.mu.Unlock()
	return nil
}

func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	return res.User, s.set(res)
}

func (s *Session) Register(ctx context.Context, name, email, password string) (*User, error) {
	res, err := s.client.Register(ctx, name, email, password)
	if err != nil {
		return nil, err
	}
	return res.User, s.set(res)
}

// Refresh reloads the user from /auth/me and persists it.
func (s *Session) Refresh(ctx context.Context) (*User, error) {
	u, err := s.client.Me(ctx)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.user = u
	creds := Credentials{Token: s.token, User: u}
	s.mu.Unlock()
	return u, s.store.Save(creds)
}

func (s *Session) Logout() error { return s.Clear() }

// Clear drops the in-memory and persisted credentials.
func (s *Session) Clear() error {
	s.mu.Lock()
	s.token, s.user = "", nil
	s.mu.Unlock()
	return s.store.Clear()
}

func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *Session) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

func (s *Session) IsAuthenticated() bool { return s.Token() != "" }

func (s *Session) set(res *AuthResult) error {
	s.mu.Lock()
	s.token, s.user = res.Token, res.User
	s.mu.Unlock()
	return s.store.Save(Credentials{Token: res.Token, User: res.User})
}
