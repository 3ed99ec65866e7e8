package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

func testSession() video.Session {
	return video.Session{
		Cookies:   map[string]string{"LOGIN_STATUS": "1", "ttwid": "abc"},
		UserAgent: "test-agent",
		IssuedAt:  time.Now().UTC(),
	}
}

func newTestClient(t *testing.T, detailURL string) *Client {
	t.Helper()
	client, err := New(Config{DetailURL: detailURL}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestIsAlive(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "")

	assert.True(t, client.IsAlive(context.Background(), testSession()))
	assert.False(t, client.IsAlive(context.Background(), video.Session{}))
	assert.False(t, client.IsAlive(context.Background(), video.Session{
		Cookies: map[string]string{"LOGIN_STATUS": "0"},
	}))
}

func TestLoginWithCookie(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "")

	session, err := client.Login(context.Background(), video.LoginCookie, "LOGIN_STATUS=1; ttwid=abc; empty")
	require.NoError(t, err)
	assert.Equal(t, "1", session.Cookies["LOGIN_STATUS"])
	assert.Equal(t, "abc", session.Cookies["ttwid"])
	assert.NotContains(t, session.Cookies, "empty")
	assert.False(t, session.IssuedAt.IsZero())
}

func TestLoginWithEmptyCookie(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "")
	_, err := client.Login(context.Background(), video.LoginCookie, "")
	require.ErrorIs(t, err, video.ErrSessionUnavailable)
}

func TestLoginUnsupportedMode(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, "")
	_, err := client.Login(context.Background(), video.LoginMode("carrier-pigeon"), "")
	require.ErrorIs(t, err, video.ErrSessionUnavailable)
}

func TestFetchItem(t *testing.T) {
	t.Parallel()

	t.Run("ReturnsDetail", func(t *testing.T) {
		var gotQuery, gotUA, gotCookie string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotQuery = r.URL.Query().Get("aweme_id")
			gotUA = r.Header.Get("User-Agent")
			gotCookie = r.Header.Get("Cookie")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"aweme_detail":{"aweme_id":"111","desc":"a clip"}}`))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		raw, err := client.FetchItem(context.Background(), testSession(), "111")
		require.NoError(t, err)

		assert.Equal(t, "111", gotQuery)
		assert.Equal(t, "test-agent", gotUA)
		assert.Contains(t, gotCookie, "LOGIN_STATUS=1")
		assert.Equal(t, "111", raw["aweme_id"])
		assert.Equal(t, "a clip", raw["desc"])
	})

	t.Run("MissingDetailIsEmptyItem", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"status_code":0}`))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		raw, err := client.FetchItem(context.Background(), testSession(), "gone")
		require.NoError(t, err)
		assert.Empty(t, raw)
	})

	t.Run("ServerErrorIsTransportFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.FetchItem(context.Background(), testSession(), "111")
		require.ErrorIs(t, err, video.ErrTransportFailure)
	})

	t.Run("MalformedBodyIsTransportFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{truncated`))
		}))
		defer srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.FetchItem(context.Background(), testSession(), "111")
		require.ErrorIs(t, err, video.ErrTransportFailure)
	})

	t.Run("UnreachableHostIsTransportFailure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		srv.Close()

		client := newTestClient(t, srv.URL)
		_, err := client.FetchItem(context.Background(), testSession(), "111")
		require.ErrorIs(t, err, video.ErrTransportFailure)
	})
}

func TestParseCookieString(t *testing.T) {
	t.Parallel()

	got := parseCookieString("a=1; b=two;  c=; =orphan; malformed")
	assert.Equal(t, map[string]string{"a": "1", "b": "two", "c": ""}, got)

	assert.Empty(t, parseCookieString(""))
}

func TestCookieDomain(t *testing.T) {
	t.Parallel()

	assert.Equal(t, ".douyin.com", cookieDomain("https://www.douyin.com"))
	assert.Equal(t, ".example.org", cookieDomain("https://example.org/path"))
	assert.Empty(t, cookieDomain("://bad"))
}
