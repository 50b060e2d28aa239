// Package session is the application state container for the admin login: the
// token is loaded once at startup, replaced on login and cleared on logout.
// The token is replayed as-is; nothing here checks expiry or signature.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/observability"
)

var ErrNoToken = errors.New("login response carried no token")

// LoginError is a rejected login; Message is what the user sees.
type LoginError struct {
	Message string
	Err     error
}

func (e *LoginError) Error() string { return "login: " + e.Message }
func (e *LoginError) Unwrap() error { return e.Err }

type State struct {
	c     *backend.Client
	store TokenStore
	log   *zap.Logger

	mu    sync.RWMutex
	token string
	user  string
}

func New(c *backend.Client, store TokenStore, log *zap.Logger) *State {
	if log == nil {
		log = zap.NewNop()
	}
	return &State{c: c, store: store, log: log.Named("session")}
}

// Load restores a stored token. Called once before serving.
func (s *State) Load(ctx context.Context) error {
	tok, err := s.store.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.token = tok
	s.mu.Unlock()
	if tok != "" {
		s.log.Info("restored admin session")
	}
	return nil
}

func (s *State) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

func (s *State) LoggedIn() bool { return s.Token() != "" }

// User is the name given at the last login in this process, "" after a restore.
func (s *State) User() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// Login posts the credentials and keeps the returned token.
func (s *State) Login(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	errs := forms.Errors{}
	if username == "" {
		errs.Add("username", "Username is mandatory.")
	}
	if password == "" {
		errs.Add("password", "Password is mandatory.")
	}
	if err := errs.Err(); err != nil {
		return err
	}

	var out loginResponse
	if err := s.c.Post(ctx, "/api/auth/admin/login", credentials{Username: username, Password: password}, &out); err != nil {
		var se *backend.StatusError
		if errors.As(err, &se) && se.Code < 500 {
			return &LoginError{Message: serverMessage(se.Body, "Login failed"), Err: err}
		}
		s.log.Warn("login failed", zap.Error(err))
		observability.CaptureSystemErr(err)
		return fmt.Errorf("login: %w", err)
	}
	if out.Token == "" {
		return &LoginError{Message: "Invalid login", Err: ErrNoToken}
	}
	if err := s.store.Save(ctx, out.Token); err != nil {
		// still logged in for this process
		s.log.Error("persist token failed", zap.Error(err))
	}
	s.mu.Lock()
	s.token = out.Token
	s.user = username
	s.mu.Unlock()
	s.log.Info("admin logged in", zap.String("user", username))
	return nil
}

// Logout forgets the token here and in the store.
func (s *State) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = ""
	s.mu.Unlock()
	return s.store.Clear(ctx)
}

// serverMessage pulls {"error": "..."} out of an error body.
func serverMessage(body, def string) string {
	var v struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal([]byte(body), &v) == nil {
		if v.Error != "" {
			return v.Error
		}
		if v.Message != "" {
			return v.Message
		}
	}
	return def
}
