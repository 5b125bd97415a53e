// Package session holds the client side session: the current token and user,
// mirrored to persistent storage after every change.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"github.com/DhruvilJayani/coursecompass/pkg/api/client"
)

// LocalTokenPrefix marks tokens minted locally for offline use. They are never
// sent to the server for verification.
const LocalTokenPrefix = "mock-"

// API is the part of the coursecompass API the session uses.
type API interface {
	Register(ctx context.Context, input client.RegisterInput) (client.AuthResponse, error)
	Login(ctx context.Context, email, password string) (client.AuthResponse, error)
	Me(ctx context.Context, token string) (client.User, error)
}

// State is a snapshot of the session. An empty Token and nil User mean signed out.
type State struct {
	Token    string
	User     *client.User
	Hydrated bool
}

// SignedIn reports whether the snapshot carries a session.
func (s State) SignedIn() bool {
	return s.Token != "" && s.User != nil
}

// Session is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	api    API
	store  Storage
	logger *slog.Logger
	state  State
}

// New constructs a Session. Call Hydrate before reading State.
func New(api API, store Storage, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{api: api, store: store, logger: logger}
}

// IsLocalToken reports whether token was minted locally.
func IsLocalToken(token string) bool {
	return strings.HasPrefix(token, LocalTokenPrefix)
}

// Hydrate loads any persisted token and user into memory. A half-present or
// unreadable pair is discarded so that token and user stay paired.
func (s *Session) Hydrate() error {
	var (
		token string
		user  client.User
	)
	hasToken, tokenErr := getJSON(s.store, KeyToken, &token)
	hasUser, userErr := getJSON(s.store, KeyUser, &user)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{Hydrated: true}
	if err := errors.Join(tokenErr, userErr); err != nil {
		s.logger.Warn("discarding unreadable session", "error", err)
		return s.store.Remove(KeyToken, KeyUser)
	}
	if !hasToken || !hasUser || token == "" {
		if hasToken || hasUser {
			return s.store.Remove(KeyToken, KeyUser)
		}
		return nil
	}
	s.state.Token = token
	s.state.User = &user
	return nil
}

// Hydrated reports whether Hydrate has completed.
func (s *Session) Hydrated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Hydrated
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.state
	if snap.User != nil {
		u := *snap.User
		snap.User = &u
	}
	return snap
}

// Token returns the current token, empty when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Login authenticates against the API and stores the issued token and user.
// API failures are returned unchanged so their message reaches the user as is.
func (s *Session) Login(ctx context.Context, email, password string) (client.User, error) {
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		return client.User{}, err
	}
	if err := s.set(resp.Token, resp.User); err != nil {
		return resp.User, err
	}
	s.logger.Info("signed in", "email", resp.User.Email)
	return resp.User, nil
}

// Register creates an account. The session changes only when the server
// answers with a token.
func (s *Session) Register(ctx context.Context, input client.RegisterInput) (client.User, error) {
	resp, err := s.api.Register(ctx, input)
	if err != nil {
		return client.User{}, err
	}
	if resp.Token != "" {
		if err := s.set(resp.Token, resp.User); err != nil {
			return resp.User, err
		}
	}
	return resp.User, nil
}

// CheckSession asks the API who the current token belongs to. Rejected tokens
// and vanished users force a logout; transport failures leave the session alone.
func (s *Session) CheckSession(ctx context.Context) error {
	token := s.Token()
	if token == "" || IsLocalToken(token) {
		return nil
	}
	user, err := s.api.Me(ctx, token)
	if err != nil {
		if client.IsAuthError(err) || client.IsNotFound(err) {
			s.logger.Warn("session expired or invalid", "error", err)
			if clearErr := s.clearIfToken(token); clearErr != nil {
				return errors.Join(err, clearErr)
			}
		}
		return err
	}
	return s.refreshUser(token, user)
}

// StartCheck runs CheckSession in the background. The channel yields its result
// and is closed; cancelling ctx abandons the check.
func (s *Session) StartCheck(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- s.CheckSession(ctx)
	}()
	return done
}

// Logout clears token and user from memory and storage. No server call is made.
func (s *Session) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = ""
	s.state.User = nil
	return s.store.Remove(KeyToken, KeyUser)
}

// SetUser replaces the user snapshot of the current session.
func (s *Session) SetUser(user client.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token == "" {
		return errors.New("session: no active session")
	}
	s.state.User = &user
	return setJSON(s.store, KeyUser, user)
}

func (s *Session) set(token string, user client.User) error {
	if strings.TrimSpace(token) == "" {
		return errors.New("session: empty token")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Token = token
	s.state.User = &user
	return errors.Join(setJSON(s.store, KeyToken, token), setJSON(s.store, KeyUser, user))
}

// clearIfToken logs out unless a newer login replaced token meanwhile.
func (s *Session) clearIfToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token != token {
		return nil
	}
	s.state.Token = ""
	s.state.User = nil
	return s.store.Remove(KeyToken, KeyUser)
}

func (s *Session) refreshUser(token string, user client.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Token != token {
		return nil
	}
	s.state.User = &user
	return setJSON(s.store, KeyUser, user)
}
