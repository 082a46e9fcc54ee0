package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func TestCounters(t *testing.T) {
	m := New()
	m.TokenIssued("login")
	m.TokenIssued("login")
	m.TokenRejected("refresh", "bad_refresh_token")
	m.ObserveRequest("/gophauth.IdentityService/GetToken", "OK", 20*time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `gophauth_tokens_issued_total{flow="login"} 2`)
	assert.Contains(t, body, `gophauth_tokens_rejected_total{flow="refresh",reason="bad_refresh_token"} 1`)
	assert.Contains(t, body, `gophauth_grpc_requests_total{code="OK",method="/gophauth.IdentityService/GetToken"} 1`)
	assert.Contains(t, body, `gophauth_grpc_request_duration_seconds_count{method="/gophauth.IdentityService/GetToken"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestNew_IndependentRegistries(t *testing.T) {
	a, b := New(), New()
	a.TokenIssued("login")
	assert.NotContains(t, scrape(t, b), `gophauth_tokens_issued_total{flow="login"}`)
}
