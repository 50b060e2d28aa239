package session

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hallboard/internal/backend"
	"github.com/Spok95/hallboard/internal/forms"
	"github.com/Spok95/hallboard/internal/testutil/fakebackend"
)

func TestFileStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	fs := NewFileStore(filepath.Join(t.TempDir(), "state", "token"))

	tok, err := fs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, fs.Save(ctx, "abc"))
	tok, err = fs.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)

	require.NoError(t, fs.Clear(ctx))
	require.NoError(t, fs.Clear(ctx))
	tok, _ = fs.Load(ctx)
	assert.Empty(t, tok)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	rs := NewRedisStore(NewRedisClient(mr.Addr()), "")

	tok, err := rs.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, tok)

	require.NoError(t, rs.Save(ctx, "xyz"))
	v, err := mr.Get("hallboard:token")
	require.NoError(t, err)
	assert.Equal(t, "xyz", v)
	assert.True(t, rs.Healthy(ctx))

	require.NoError(t, rs.Clear(ctx))
	tok, _ = rs.Load(ctx)
	assert.Empty(t, tok)
}

func newState(t *testing.T) (*fakebackend.Server, *State, TokenStore) {
	t.Helper()
	fb := fakebackend.New()
	t.Cleanup(fb.Close)
	store := NewFileStore(filepath.Join(t.TempDir(), "token"))
	return fb, New(backend.New("fleet", fb.URL, 2*time.Second, nil), store, nil), store
}

func TestLogin_StoresToken(t *testing.T) {
	fb, st, store := newState(t)
	ctx := context.Background()

	require.NoError(t, st.Login(ctx, "admin", "secret"))
	assert.Equal(t, fb.Token, st.Token())
	assert.Equal(t, "admin", st.User())

	saved, _ := store.Load(ctx)
	assert.Equal(t, fb.Token, saved)

	// a fresh process restores it
	again := New(nil, store, nil)
	require.NoError(t, again.Load(ctx))
	assert.True(t, again.LoggedIn())

	require.NoError(t, st.Logout(ctx))
	assert.False(t, st.LoggedIn())
	saved, _ = store.Load(ctx)
	assert.Empty(t, saved)
}

func TestLogin_Rejected(t *testing.T) {
	_, st, _ := newState(t)

	err := st.Login(context.Background(), "admin", "wrong")
	var le *LoginError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "Invalid credentials", le.Message)
	assert.False(t, st.LoggedIn())
}

func TestLogin_EmptyFieldsSendNothing(t *testing.T) {
	fb, st, _ := newState(t)

	err := st.Login(context.Background(), " ", "")
	require.ErrorIs(t, err, forms.ErrInvalid)
	assert.Empty(t, fb.Calls())
}

func TestLogin_UpstreamDownIsNotARejection(t *testing.T) {
	fb, st, _ := newState(t)
	fb.FailNext("auth.login", http.StatusBadGateway)

	err := st.Login(context.Background(), "admin", "secret")
	require.Error(t, err)
	var le *LoginError
	assert.False(t, errors.As(err, &le))
	assert.False(t, st.LoggedIn())
}
