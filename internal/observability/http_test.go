package observability

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIPFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/chat", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", IPFromRequest(req))

	req.Header.Set("X-Real-Ip", "192.168.1.4")
	assert.Equal(t, "192.168.1.4", IPFromRequest(req))

	req.Header.Set("X-Forwarded-For", " 203.0.113.9 , 10.0.0.1")
	assert.Equal(t, "203.0.113.9", IPFromRequest(req))
}

func TestClientInfoFromRequest(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws/chat", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	req.Header.Set("X-Request-Id", "req-1")
	req.Header.Set("X-Device-Id", "tablet-3")

	info := ClientInfoFromRequest(req)
	assert.Equal(t, ClientInfo{RequestID: "req-1", DeviceID: "tablet-3", IP: "10.0.0.7"}, info)
}
