package resilience

import (
	"errors"
	"fmt"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(errors.New("bad request")))
	assert.True(t, IsTransient(NewTransientError(errors.New("boom"), 503)))
	assert.True(t, IsTransient(fmt.Errorf("wrapped: %w", NewTransientError(errors.New("boom"), 429))))
	assert.True(t, IsTransient(errors.New("dial tcp: connection refused")))
}

func TestIsConnectivity(t *testing.T) {
	assert.False(t, IsConnectivity(nil))
	assert.False(t, IsConnectivity(errors.New("unexpected status 400")))
	assert.True(t, IsConnectivity(syscall.ECONNRESET))
	assert.True(t, IsConnectivity(fmt.Errorf("send: %w", syscall.ECONNREFUSED)))
	assert.True(t, IsConnectivity(errors.New("lookup api.example.com: no such host")))
	assert.True(t, IsConnectivity(errors.New("net/http: TLS handshake timeout")))
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		assert.True(t, IsTransientHTTPStatus(code), "status %d", code)
	}
	for _, code := range []int{200, 202, 400, 401, 403, 404} {
		assert.False(t, IsTransientHTTPStatus(code), "status %d", code)
	}
}
