package storefront

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

func TestAuthContext_Token(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{name: "missing", token: "", wantErr: true},
		{name: "opaque", token: "opaque-token"},
		{name: "valid jwt", token: signedToken(t, time.Now().Add(time.Hour))},
		{name: "expired jwt", token: signedToken(t, time.Now().Add(-time.Minute)), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &MemoryTokenStore{}
			require.NoError(t, store.Save(tt.token))
			auth := NewAuthContext(store, nil, nil)

			got, err := auth.Token()
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnauthorized)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.token, got)
		})
	}
}

func TestAuthContext_InvalidateRunsListenersOnce(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save("t"))
	r := &redirects{}
	auth := NewAuthContext(store, r.redirect, nil)

	calls := 0
	auth.OnInvalidate(func() { calls++ })

	_, err := guard(WithLocation(context.Background(), "/orders"), auth,
		func(context.Context, string) (int, error) { return 0, unauthorized() })
	require.ErrorIs(t, err, ErrUnauthorized)

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"/orders"}, r.Seen())
	token, _ := store.Load()
	assert.Empty(t, token)
}

func TestGuard_OtherErrorsKeepToken(t *testing.T) {
	store := &MemoryTokenStore{}
	require.NoError(t, store.Save("t"))
	r := &redirects{}
	auth := NewAuthContext(store, r.redirect, nil)

	err := guardErr(context.Background(), auth, func(context.Context, string) error { return ErrNetwork })
	require.ErrorIs(t, err, ErrNetwork)
	assert.Empty(t, r.Seen())
	token, _ := store.Load()
	assert.Equal(t, "t", token)
}

func TestFileTokenStore(t *testing.T) {
	s := FileTokenStore{Path: filepath.Join(t.TempDir(), "token")}

	token, err := s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)

	require.NoError(t, s.Save("abc"))
	token, err = s.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc", token)

	require.NoError(t, s.Clear())
	require.NoError(t, s.Clear())
	token, err = s.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}
