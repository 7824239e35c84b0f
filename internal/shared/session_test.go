package shared

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSessionManager(t *testing.T) *SessionManager {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewSessionManager(client, "artha_session", time.Hour, false)
}

func TestSessionRoundTripViaCookie(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	sess, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())

	sess.SetUser(42, 7, "owner@artha.test")
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "artha_session", cookies[0].Name)
	assert.Equal(t, sess.ID, cookies[0].Value)

	next := httptest.NewRequest(http.MethodGet, "/", nil)
	next.AddCookie(cookies[0])
	restored, err := sm.Load(ctx, next)
	require.NoError(t, err)
	assert.True(t, restored.Authenticated())
	assert.Equal(t, int64(42), restored.UserID)
	assert.Equal(t, int64(7), restored.CompanyID)
	assert.Equal(t, "owner@artha.test", restored.Email)
}

func TestSessionHeaderTokenWins(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(1, 1, "api@artha.test")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Token", sess.ID)
	req.AddCookie(&http.Cookie{Name: "artha_session", Value: "stale-cookie-id"})

	restored, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, restored.ID)
	assert.True(t, restored.Authenticated())
}

func TestSessionDestroy(t *testing.T) {
	sm := newTestSessionManager(t)
	ctx := context.Background()

	sess, err := sm.Load(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	sess.SetUser(42, 7, "owner@artha.test")
	require.NoError(t, sm.Commit(ctx, httptest.NewRecorder(), sess))

	sm.Destroy(sess)
	rec := httptest.NewRecorder()
	require.NoError(t, sm.Commit(ctx, rec, sess))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Token", sess.ID)
	restored, err := sm.Load(ctx, req)
	require.NoError(t, err)
	assert.False(t, restored.Authenticated())
}

func TestUnknownTokenYieldsAnonymousSession(t *testing.T) {
	sm := newTestSessionManager(t)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Session-Token", "never-issued")
	sess, err := sm.Load(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
	assert.Equal(t, "never-issued", sess.ID)
}
