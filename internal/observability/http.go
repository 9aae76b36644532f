package observability

import (
	"net"
	"net/http"
	"strings"
)

const (
	headerRequestID = "X-Request-Id"
	headerDeviceID  = "X-Device-Id"
	headerForwarded = "X-Forwarded-For"
	headerRealIP    = "X-Real-Ip"
)

// ClientInfo identifies the remote side of a request for event payloads.
type ClientInfo struct {
	RequestID string
	DeviceID  string
	IP        string
}

// ClientInfoFromRequest collects the caller headers attached to ws and audit events.
func ClientInfoFromRequest(r *http.Request) ClientInfo {
	return ClientInfo{
		RequestID: RequestIDFromRequest(r),
		DeviceID:  DeviceIDFromRequest(r),
		IP:        IPFromRequest(r),
	}
}

func DeviceIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerDeviceID))
}

func RequestIDFromRequest(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get(headerRequestID))
}

// IPFromRequest prefers the first X-Forwarded-For hop, then X-Real-Ip, then the socket address.
func IPFromRequest(r *http.Request) string {
	if first, _, _ := strings.Cut(r.Header.Get(headerForwarded), ","); strings.TrimSpace(first) != "" {
		return strings.TrimSpace(first)
	}
	if ip := strings.TrimSpace(r.Header.Get(headerRealIP)); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
