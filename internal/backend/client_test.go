package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spok95/hallboard/internal/ctxutil"
)

func TestClient_BearerAndJSON(t *testing.T) {
	var gotAuth, gotReqID, gotQuery string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotReqID = r.Header.Get("X-Request-ID")
		gotQuery = r.URL.RawQuery
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token":"abc"}`))
	}))
	defer srv.Close()

	c := New("fleet", srv.URL+"/", time.Second, nil)
	ctx := ctxutil.WithRequestID(context.Background(), "r-7")

	var out struct {
		Token string `json:"token"`
	}
	err := c.Post(ctx, "/api/auth/admin/login", map[string]string{"username": "admin"}, &out,
		WithBearer("t0k"), WithQuery(url.Values{"a": {"1"}}))
	require.NoError(t, err)

	assert.Equal(t, "abc", out.Token)
	assert.Equal(t, "Bearer t0k", gotAuth)
	assert.Equal(t, "r-7", gotReqID)
	assert.Equal(t, "a=1", gotQuery)
	assert.Equal(t, "admin", gotBody["username"])
}

func TestClient_EmptyBearerLeavesHeaderUnset(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := New("fleet", srv.URL, time.Second, nil)
	require.NoError(t, c.Get(context.Background(), "/x", nil, WithBearer("")))
	assert.Empty(t, gotAuth)
}

func TestClient_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate sit", http.StatusConflict)
	}))
	defer srv.Close()

	c := New("students", srv.URL, time.Second, nil)
	err := c.Delete(context.Background(), "/api/students/delete/4", nil)
	require.Error(t, err)
	assert.True(t, IsStatus(err, http.StatusConflict))
	assert.Equal(t, "/api/students/delete/4: http 409: duplicate sit", err.Error())
}

func TestClient_EmptyBodyWithOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New("students", srv.URL, time.Second, nil)
	var out map[string]any
	assert.NoError(t, c.Put(context.Background(), "/p", map[string]int{"a": 1}, &out))
}
