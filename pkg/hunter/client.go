// Package hunter is a client for the hunter.io email finder and verifier
// APIs. Both endpoints return HTTP 202 while a lookup is still running
// server-side; the client polls a bounded number of times and reports an
// exhausted poll as Pending rather than an error.
package hunter

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/internal/resilience"
)

const defaultBaseURL = "https://api.hunter.io/v2"

// Client looks up and verifies email addresses.
type Client interface {
	// FindEmail looks up the most likely email for a person at a domain.
	FindEmail(ctx context.Context, firstName, lastName, domain string) (*FindResponse, error)

	// VerifyEmail checks deliverability of an email address.
	VerifyEmail(ctx context.Context, email string) (*VerifyResponse, error)
}

// APIError is one entry of the "errors" array in a 4xx response body.
type APIError struct {
	ID      string `json:"id"`
	Code    int    `json:"code"`
	Details string `json:"details"`
}

// Source is one place hunter.io saw the email.
type Source struct {
	URI string `json:"uri"`
}

// FindData is the payload of a successful email-finder call.
type FindData struct {
	Email       string   `json:"email"`
	Score       int      `json:"score"`
	Sources     []Source `json:"sources"`
	PhoneNumber string   `json:"phone_number"`
	LinkedInURL string   `json:"linkedin_url"`
}

// FindResponse is the outcome of an email-finder call. Data is nil unless
// the call returned 200 with a payload. Pending is set when the in-progress
// poll budget ran out.
type FindResponse struct {
	StatusCode int
	Data       *FindData
	Errors     []APIError
	Pending    bool
}

// VerifyData is the payload of a successful email-verifier call.
type VerifyData struct {
	Score   int      `json:"score"`
	Status  string   `json:"status"`
	Sources []Source `json:"sources"`
}

// VerifyResponse is the outcome of an email-verifier call, with the same
// conventions as FindResponse.
type VerifyResponse struct {
	StatusCode int
	Data       *VerifyData
	Errors     []APIError
	Pending    bool
}

// InvalidEmail reports whether the verifier rejected the address as
// structurally invalid, which flags the row for email re-discovery.
func (r *VerifyResponse) InvalidEmail() bool {
	return r.StatusCode == http.StatusBadRequest &&
		len(r.Errors) > 0 && r.Errors[0].ID == "invalid_email"
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit caps outgoing requests per second across finder and
// verifier calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// WithPollConfig overrides the in-progress poll behavior.
func WithPollConfig(cfg resilience.PollConfig) Option {
	return func(c *httpClient) {
		c.poll = cfg
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	poll    resilience.PollConfig
}

// NewClient creates a hunter.io API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 40 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		poll: resilience.DefaultPollConfig(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) FindEmail(ctx context.Context, firstName, lastName, domain string) (*FindResponse, error) {
	params := url.Values{}
	params.Set("domain", domain)
	params.Set("first_name", firstName)
	params.Set("last_name", lastName)

	resp, err := resilience.Poll(ctx, c.poll, func(ctx context.Context) (*FindResponse, bool, error) {
		status, body, err := c.get(ctx, "/email-finder", params)
		if err != nil {
			return nil, false, err
		}
		if status == http.StatusAccepted {
			return &FindResponse{StatusCode: status, Pending: true}, false, nil
		}

		out := &FindResponse{StatusCode: status}
		if err := decodeBody(body, status, &out.Data, &out.Errors); err != nil {
			return nil, false, eris.Wrap(err, "hunter: decode finder response")
		}
		return out, true, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *httpClient) VerifyEmail(ctx context.Context, email string) (*VerifyResponse, error) {
	params := url.Values{}
	params.Set("email", email)

	resp, err := resilience.Poll(ctx, c.poll, func(ctx context.Context) (*VerifyResponse, bool, error) {
		status, body, err := c.get(ctx, "/email-verifier", params)
		if err != nil {
			return nil, false, err
		}
		if status == http.StatusAccepted {
			return &VerifyResponse{StatusCode: status, Pending: true}, false, nil
		}

		out := &VerifyResponse{StatusCode: status}
		if err := decodeBody(body, status, &out.Data, &out.Errors); err != nil {
			return nil, false, eris.Wrap(err, "hunter: decode verifier response")
		}
		return out, true, nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// get performs one rate-limited GET and returns the status code and body.
func (c *httpClient) get(ctx context.Context, path string, params url.Values) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, eris.Wrap(err, "hunter: rate limit wait")
		}
	}

	params.Set("api_key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return 0, nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, eris.Wrap(err, "hunter: send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, eris.Wrap(err, "hunter: read response")
	}

	return resp.StatusCode, body, nil
}

// decodeBody unmarshals "data" on 200 and "errors" on 4xx. Other statuses
// leave both nil; the caller decides how loud to be about them.
func decodeBody[D any](body []byte, status int, data *D, apiErrs *[]APIError) error {
	switch {
	case status == http.StatusOK:
		var envelope struct {
			Data D `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		*data = envelope.Data
	case status >= 400 && status < 500:
		var envelope struct {
			Errors []APIError `json:"errors"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return err
		}
		*apiErrs = envelope.Errors
	}
	return nil
}
