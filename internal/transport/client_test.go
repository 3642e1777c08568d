// internal/transport/client_test.go
package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/law-makers/ferryroutes/internal/extract"
	"github.com/law-makers/ferryroutes/internal/ratelimit"
	"github.com/stretchr/testify/require"
)

func TestClient_PostForm(t *testing.T) {
	var got *http.Request
	var gotBody string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		got = r.Clone(context.Background())
		gotBody = string(b)
		io.WriteString(w, `<option value="31">Makassar</option>`)
	}))
	defer server.Close()

	client := New(Options{
		UserAgent: "test-agent/1.0",
		Referer:   server.URL + "/",
		Cookies:   []*http.Cookie{{Name: "XSRF-TOKEN", Value: "x1"}, {Name: "laravel_session", Value: "s1"}},
		Headers:   map[string]string{"X-Requested-With": "fetch", "X-Test": "yes"},
	})

	body, err := client.PostForm(context.Background(), server.URL+"/getdes", "ticket_org=12&_token=abc")
	require.NoError(t, err)
	require.Equal(t, `<option value="31">Makassar</option>`, body)

	require.Equal(t, http.MethodPost, got.Method)
	require.Equal(t, "ticket_org=12&_token=abc", gotBody)
	require.Equal(t, extract.FormContentType, got.Header.Get("Content-Type"))
	require.Equal(t, "test-agent/1.0", got.Header.Get("User-Agent"))
	require.Equal(t, server.URL+"/", got.Header.Get("Referer"))
	require.Equal(t, server.URL, got.Header.Get("Origin"))
	require.Equal(t, "fetch", got.Header.Get("X-Requested-With"))
	require.Equal(t, "yes", got.Header.Get("X-Test"))

	c, err := got.Cookie("laravel_session")
	require.NoError(t, err)
	require.Equal(t, "s1", c.Value)
}

func TestClient_PostForm_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := New(Options{})
	_, err := client.PostForm(context.Background(), server.URL, "ticket_org=1&_token=t")

	var statusErr *extract.StatusError
	require.True(t, errors.As(err, &statusErr), "expected *StatusError, got %v", err)
	require.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestClient_PostForm_NoRetry(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(Options{})
	_, err := client.PostForm(context.Background(), server.URL, "a=b")
	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestClient_PostForm_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := New(Options{})
	_, err := client.PostForm(ctx, server.URL, "a=b")
	require.Error(t, err)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_PostForm_WaitsOnLimiter(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "")
	}))
	defer server.Close()

	client := New(Options{Limiter: ratelimit.NewDomainLimiter(10, 1)})

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := client.PostForm(context.Background(), server.URL, "a=b")
		require.NoError(t, err)
	}
	// burst 1 at 10 rps: the 2nd and 3rd requests each wait ~100ms
	require.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}
