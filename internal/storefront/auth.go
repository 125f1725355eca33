package storefront

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

// TokenStore persists the bearer token between runs.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// MemoryTokenStore keeps the token in memory.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (s *MemoryTokenStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	return s.Save("")
}

// FileTokenStore keeps the token in a file readable only by its owner.
type FileTokenStore struct {
	Path string
}

func (s FileTokenStore) Load() (string, error) {
	b, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read token")
	}
	return strings.TrimSpace(string(b)), nil
}

func (s FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return errors.Wrap(err, "create token dir")
	}
	if err := os.WriteFile(s.Path, []byte(token), 0o600); err != nil {
		return errors.Wrap(err, "write token")
	}
	return nil
}

func (s FileTokenStore) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove token")
	}
	return nil
}

// AuthContext is the single holder of the bearer token. Components never
// read the store directly: they ask for the token and report rejections
// through Invalidate, which is the only place the token is dropped.
type AuthContext struct {
	store      TokenStore
	redirect   func(returnTo string)
	lg         *zap.Logger
	now        func() time.Time
	mu         sync.Mutex
	listeners  []func()
	invalidate sync.Mutex
}

// NewAuthContext creates an AuthContext. redirect is called with the
// originating location whenever the token is found missing or rejected; it
// may be nil.
func NewAuthContext(store TokenStore, redirect func(returnTo string), lg *zap.Logger) *AuthContext {
	if redirect == nil {
		redirect = func(string) {}
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &AuthContext{
		store:    store,
		redirect: redirect,
		lg:       lg,
		now:      time.Now,
	}
}

// SignIn stores a token obtained from the sign-in flow.
func (a *AuthContext) SignIn(token string) error {
	return a.store.Save(strings.TrimSpace(token))
}

// Token returns the current token. A missing token or a JWT whose exp
// claim has passed yields ErrUnauthorized. Tokens that are not JWTs are
// returned as is and left for the server to judge.
func (a *AuthContext) Token() (string, error) {
	token, err := a.store.Load()
	if err != nil {
		return "", errors.Wrap(err, "load token")
	}
	if token == "" {
		return "", ErrUnauthorized
	}
	if a.expired(token) {
		return "", errors.Wrap(ErrUnauthorized, "token expired")
	}
	return token, nil
}

func (a *AuthContext) expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !a.now().Before(exp.Time)
}

// OnInvalidate registers fn to run whenever the token is invalidated, e.g.
// to tear down local state owned by the signed-in user.
func (a *AuthContext) OnInvalidate(fn func()) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.listeners = append(a.listeners, fn)
}

// Invalidate clears the token, tears down dependent state and redirects to
// sign-in, preserving returnTo for navigation after sign-in.
func (a *AuthContext) Invalidate(returnTo string) {
	a.invalidate.Lock()
	defer a.invalidate.Unlock()

	if err := a.store.Clear(); err != nil {
		a.lg.Warn("Clear token", zap.Error(err))
	}
	a.mu.Lock()
	listeners := append([]func(){}, a.listeners...)
	a.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}
	a.lg.Debug("Token invalidated", zap.String("return_to", returnTo))
	a.redirect(returnTo)
}

type locationKey struct{}

// WithLocation records the UI location an operation originates from. It is
// handed to the sign-in redirect when the operation hits ErrUnauthorized.
func WithLocation(ctx context.Context, location string) context.Context {
	return context.WithValue(ctx, locationKey{}, location)
}

// Location returns the location recorded by WithLocation, or "".
func Location(ctx context.Context) string {
	loc, _ := ctx.Value(locationKey{}).(string)
	return loc
}

// guard runs op with the current token. Every ErrUnauthorized, whether the
// token is missing locally or rejected by the server, invalidates the token
// once and is then returned so the caller can still react to it.
func guard[T any](ctx context.Context, auth *AuthContext, op func(ctx context.Context, token string) (T, error)) (T, error) {
	var zero T
	token, err := auth.Token()
	if err == nil {
		var v T
		if v, err = op(ctx, token); err == nil {
			return v, nil
		}
	}
	if errors.Is(err, ErrUnauthorized) {
		auth.Invalidate(Location(ctx))
	}
	return zero, err
}

func guardErr(ctx context.Context, auth *AuthContext, op func(ctx context.Context, token string) error) error {
	_, err := guard(ctx, auth, func(ctx context.Context, token string) (struct{}, error) {
		return struct{}{}, op(ctx, token)
	})
	return err
}
