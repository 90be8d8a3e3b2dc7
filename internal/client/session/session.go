// Package session holds the signed-in user and the bearer token, restoring
// both from the local store on start and persisting them on every change.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/atinyakov/GophMall/internal/client/api"
	"github.com/atinyakov/GophMall/internal/client/kv"
)

// Persisted keys.
const (
	TokenKey = "APP_TOKEN"
	UserKey  = "APP_USER_INFO"
)

// LoginPage is where Logout sends the user.
const LoginPage = "/pages/common/login/index"

// Backend is the part of the API the session calls.
type Backend interface {
	Login(ctx context.Context, creds api.Credentials) (*api.Response, error)
	Register(ctx context.Context, userData any) (*api.Response, error)
}

// Navigator performs page navigation on behalf of the session.
type Navigator interface {
	Relaunch(page string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(page string)

func (f NavigatorFunc) Relaunch(page string) { f(page) }

// User is the signed-in user's profile. Raw keeps the profile exactly as
// the backend sent it and is what gets persisted.
type User struct {
	ID       string
	Username string
	Role     string
	Raw      json.RawMessage
}

// ParseUser reads a profile object. Any JSON object is accepted; the known
// fields are lifted out of it.
func ParseUser(raw []byte) (*User, error) {
	if !gjson.ValidBytes(raw) {
		return nil, errors.New("user profile is not valid JSON")
	}
	res := gjson.ParseBytes(raw)
	if !res.IsObject() {
		return nil, errors.New("user profile is not a JSON object")
	}
	return &User{
		ID:       res.Get("id").String(),
		Username: res.Get("username").String(),
		Role:     res.Get("role").String(),
		Raw:      append(json.RawMessage(nil), raw...),
	}, nil
}

// Field returns a field of the raw profile, e.g. "nickname".
func (u *User) Field(path string) gjson.Result {
	return gjson.GetBytes(u.Raw, path)
}

// RegisterResult is the outcome of a successful registration. User is set
// only when the backend answered with a user and a token, in which case
// the session is signed in.
type RegisterResult struct {
	User *User
	Raw  json.RawMessage
}

// Session is the authentication state container.
type Session struct {
	backend    Backend
	store      kv.Store
	convention api.Convention
	navigator  Navigator
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
	user  *User
}

// Option configures a Session.
type Option func(*Session)

// WithConvention selects how a response is judged successful. The default
// is api.CodeConvention.
func WithConvention(c api.Convention) Option {
	return func(s *Session) {
		if c != nil {
			s.convention = c
		}
	}
}

// WithNavigator sets where Logout relaunches to.
func WithNavigator(n Navigator) Option {
	return func(s *Session) { s.navigator = n }
}

// WithLogger sets the session logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates an empty, signed-out session. Call TryAutoLogin to restore a
// persisted one.
func New(backend Backend, store kv.Store, opts ...Option) *Session {
	s := &Session{
		backend:    backend,
		store:      store,
		convention: api.CodeConvention{},
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Token returns the current bearer token, or "" when signed out.
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// IsAuthenticated reports whether both a token and a user are held.
func (s *Session) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token != "" && s.user != nil
}

// CurrentUser returns the signed-in user, or nil.
func (s *Session) CurrentUser() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Role returns the signed-in user's role, or "".
func (s *Session) Role() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.user == nil {
		return ""
	}
	return s.user.Role
}

// Login authenticates with the backend and, on success, stores and
// persists the token and user.
func (s *Session) Login(ctx context.Context, creds api.Credentials) (*User, error) {
	resp, err := s.backend.Login(ctx, creds)
	if err != nil || !s.convention.Succeeded(resp) {
		return nil, api.Reject(resp, err, "login failed")
	}

	token, user, ok := credentials(s.convention.Payload(resp))
	if !ok {
		s.logger.Warn("login response carries no token or user", zap.String("username", creds.Username))
		return nil, &api.Error{
			Kind:       api.KindRejected,
			StatusCode: resp.StatusCode,
			Message:    api.Message(resp, nil, "login failed"),
		}
	}

	if err := s.signIn(ctx, token, user); err != nil {
		return user, err
	}
	s.logger.Info("signed in", zap.String("username", user.Username), zap.String("role", user.Role))
	return user, nil
}

// Register creates an account. When the backend answers with a token and
// a user the session is signed in; otherwise the raw payload is returned
// and the session stays as it was.
func (s *Session) Register(ctx context.Context, userData any) (*RegisterResult, error) {
	resp, err := s.backend.Register(ctx, userData)
	if err != nil || !s.convention.Succeeded(resp) {
		return nil, api.Reject(resp, err, "registration failed")
	}

	payload := s.convention.Payload(resp)
	result := &RegisterResult{Raw: json.RawMessage(payload.Raw)}

	token, user, ok := credentials(payload)
	if !ok {
		return result, nil
	}
	result.User = user
	if err := s.signIn(ctx, token, user); err != nil {
		return result, err
	}
	s.logger.Info("registered and signed in", zap.String("username", user.Username))
	return result, nil
}

// Logout forgets the session, removes it from the store and relaunches to
// the login page. The relaunch happens even when the store fails.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	s.token = ""
	s.user = nil
	s.mu.Unlock()

	err := errors.Join(
		s.store.Remove(ctx, TokenKey),
		s.store.Remove(ctx, UserKey),
	)
	if err != nil {
		s.logger.Error("failed to remove persisted session", zap.Error(err))
		err = fmt.Errorf("logout: %w", err)
	}

	if s.navigator != nil {
		s.navigator.Relaunch(LoginPage)
	}
	return err
}

// TryAutoLogin restores a persisted session. It returns the user's role
// when both token and user were found; otherwise the session is left
// signed out, nothing is written and the role is "".
func (s *Session) TryAutoLogin(ctx context.Context) (string, error) {
	token, user, err := s.load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil || token == "" || user == nil {
		s.token = ""
		s.user = nil
		if err != nil {
			return "", err
		}
		s.logger.Debug("no persisted session")
		return "", nil
	}

	s.token = token
	s.user = user
	s.logger.Info("session restored", zap.String("username", user.Username))
	return user.Role, nil
}

func (s *Session) load(ctx context.Context) (string, *User, error) {
	rawToken, err := s.store.Get(ctx, TokenKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return "", nil, nil
	case err != nil:
		return "", nil, fmt.Errorf("restore session: %w", err)
	}

	rawUser, err := s.store.Get(ctx, UserKey)
	switch {
	case errors.Is(err, kv.ErrNotFound):
		return "", nil, nil
	case err != nil:
		return "", nil, fmt.Errorf("restore session: %w", err)
	}

	user, err := ParseUser(rawUser)
	if err != nil {
		s.logger.Warn("ignoring malformed persisted user", zap.Error(err))
		return "", nil, nil
	}
	return string(rawToken), user, nil
}

func (s *Session) signIn(ctx context.Context, token string, user *User) error {
	s.mu.Lock()
	s.token = token
	s.user = user
	s.mu.Unlock()

	if err := s.store.Set(ctx, TokenKey, []byte(token)); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	if err := s.store.Set(ctx, UserKey, user.Raw); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}
	return nil
}

// credentials pulls {token, user} out of a success payload.
func credentials(payload gjson.Result) (string, *User, bool) {
	token := payload.Get("token").String()
	userField := payload.Get("user")
	if token == "" || !userField.IsObject() {
		return "", nil, false
	}
	user, err := ParseUser([]byte(userField.Raw))
	if err != nil {
		return "", nil, false
	}
	return token, user, true
}
