package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

func fastPoll() Option {
	return WithPollConfig(resilience.PollConfig{MaxExtraAttempts: 5, Interval: time.Millisecond})
}

func TestFindEmailSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-finder", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "Jane", q.Get("first_name"))
		assert.Equal(t, "Doe", q.Get("last_name"))
		assert.Equal(t, "brevard.gov", q.Get("domain"))

		_, _ = w.Write([]byte(`{"data":{"email":"jane.doe@brevard.gov","score":93,` +
			`"sources":[{"uri":"https://brevard.gov/dir"}],"phone_number":"321-555-0100",` +
			`"linkedin_url":"https://linkedin.com/in/jdoe"}}`))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL), fastPoll())

	resp, err := c.FindEmail(context.Background(), "Jane", "Doe", "brevard.gov")
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "jane.doe@brevard.gov", resp.Data.Email)
	assert.Equal(t, 93, resp.Data.Score)
	require.Len(t, resp.Data.Sources, 1)
	assert.Equal(t, "https://brevard.gov/dir", resp.Data.Sources[0].URI)
	assert.False(t, resp.Pending)
}

func TestFindEmailPollsThrough202(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusAccepted)
			return
		}
		_, _ = w.Write([]byte(`{"data":{"email":"a@b.gov","score":80}}`))
	}))
	defer server.Close()

	c := NewClient("k", WithBaseURL(server.URL), fastPoll())

	resp, err := c.FindEmail(context.Background(), "A", "B", "b.gov")
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	require.NotNil(t, resp.Data)
	assert.Equal(t, "a@b.gov", resp.Data.Email)
}

func TestFindEmailPollBudgetExhausted(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	c := NewClient("k", WithBaseURL(server.URL), fastPoll())

	resp, err := c.FindEmail(context.Background(), "A", "B", "b.gov")
	require.NoError(t, err)
	// First call plus five extra polls; still pending is not an error.
	assert.Equal(t, 6, calls)
	assert.True(t, resp.Pending)
	assert.Nil(t, resp.Data)
}

func TestVerifyEmailSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/email-verifier", r.URL.Path)
		assert.Equal(t, "jane.doe@brevard.gov", r.URL.Query().Get("email"))

		_, _ = w.Write([]byte(`{"data":{"score":95,"status":"valid",` +
			`"sources":[{"uri":"https://brevard.gov/staff"}]}}`))
	}))
	defer server.Close()

	c := NewClient("k", WithBaseURL(server.URL), fastPoll())

	resp, err := c.VerifyEmail(context.Background(), "jane.doe@brevard.gov")
	require.NoError(t, err)
	require.NotNil(t, resp.Data)
	assert.Equal(t, 95, resp.Data.Score)
	assert.Equal(t, "valid", resp.Data.Status)
	assert.False(t, resp.InvalidEmail())
}

func TestVerifyEmailInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errors":[{"id":"invalid_email","code":400,"details":"malformed"}]}`))
	}))
	defer server.Close()

	c := NewClient("k", WithBaseURL(server.URL), fastPoll())

	resp, err := c.VerifyEmail(context.Background(), "not-an-email")
	require.NoError(t, err)
	assert.Nil(t, resp.Data)
	assert.True(t, resp.InvalidEmail())
}

func TestVerifyEmailOtherClientError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"errors":[{"id":"too_many_requests","code":429}]}`))
	}))
	defer server.Close()

	c := NewClient("k", WithBaseURL(server.URL), fastPoll())

	resp, err := c.VerifyEmail(context.Background(), "a@b.gov")
	require.NoError(t, err)
	assert.False(t, resp.InvalidEmail())
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, "too_many_requests", resp.Errors[0].ID)
}

func TestRateLimiterDelaysSecondCall(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"score":90,"status":"valid"}}`))
	}))
	defer server.Close()

	c := NewClient("k", WithBaseURL(server.URL), fastPoll(), WithRateLimit(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := c.VerifyEmail(context.Background(), "a@b.gov")
		require.NoError(t, err)
	}
	// 20 rps with burst 1 forces ~50ms between calls.
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}
