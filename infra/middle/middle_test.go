package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("success"))
	})
}

func TestAPIKeyMiddleware(t *testing.T) {
	handler := APIKeyMiddleware("test-api-key")(okHandler())

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
	}{
		{name: "Valid API key", authHeader: "Bearer test-api-key", expectedStatus: http.StatusOK},
		{name: "Invalid API key", authHeader: "Bearer wrong-key", expectedStatus: http.StatusUnauthorized},
		{name: "Missing Authorization header", authHeader: "", expectedStatus: http.StatusUnauthorized},
		{name: "Invalid format", authHeader: "Basic test-api-key", expectedStatus: http.StatusUnauthorized},
		{name: "Empty Bearer token", authHeader: "Bearer ", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/test", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestAPIKeyMiddleware_Disabled(t *testing.T) {
	rr := httptest.NewRecorder()
	APIKeyMiddleware("")(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if rr.Code != http.StatusOK {
		t.Errorf("Expected status 200 without a configured key, got %d", rr.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     2,
		window:   100 * time.Millisecond,
	}
	clientIP := "192.168.1.1"

	if !rl.Allow(clientIP) {
		t.Error("First request should be allowed")
	}
	if !rl.Allow(clientIP) {
		t.Error("Second request should be allowed")
	}
	if rl.Allow(clientIP) {
		t.Error("Third request should be blocked")
	}
	if !rl.Allow("10.0.0.1") {
		t.Error("Other clients have their own budget")
	}

	time.Sleep(150 * time.Millisecond)
	if !rl.Allow(clientIP) {
		t.Error("Request after window should be allowed")
	}
}

func TestNewRateLimiter_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rl := NewRateLimiter(ctx, 0)
	cancel()

	if rl.rate != 100 {
		t.Errorf("Expected default rate 100, got %d", rl.rate)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl := &RateLimiter{
		visitors: make(map[string]*visitor),
		rate:     1,
		window:   time.Minute,
	}
	handler := RateLimitMiddleware(rl)(okHandler())

	req1 := httptest.NewRequest("GET", "/test", nil)
	req1.RemoteAddr = "192.168.1.1:12345"
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req1)
	if rr1.Code != http.StatusOK {
		t.Errorf("First request should succeed, got status %d", rr1.Code)
	}

	req2 := httptest.NewRequest("GET", "/test", nil)
	req2.RemoteAddr = "192.168.1.1:12346"
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusTooManyRequests {
		t.Errorf("Second request should be rate limited, got status %d", rr2.Code)
	}
	if rr2.Header().Get("Retry-After") == "" {
		t.Error("Expected Retry-After header")
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{name: "forwarded chain", xff: "203.0.113.5, 10.0.0.1", remoteAddr: "10.0.0.2:1", want: "203.0.113.5"},
		{name: "single forwarded", xff: "203.0.113.9", remoteAddr: "10.0.0.2:1", want: "203.0.113.9"},
		{name: "real ip", realIP: "198.51.100.7", remoteAddr: "10.0.0.2:1", want: "198.51.100.7"},
		{name: "remote addr", remoteAddr: "192.0.2.1:5555", want: "192.0.2.1"},
		{name: "ipv6 localhost", remoteAddr: "[::1]:5555", want: "127.0.0.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := GetClientIP(req); got != tt.want {
				t.Errorf("GetClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecurityHeadersMiddleware(t *testing.T) {
	rr := httptest.NewRecorder()
	SecurityHeadersMiddleware()(okHandler()).ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	expectedHeaders := map[string]string{
		"X-Content-Type-Options":  "nosniff",
		"X-Frame-Options":         "DENY",
		"Content-Security-Policy": "default-src 'none'; frame-ancestors 'none'",
		"Referrer-Policy":         "strict-origin-when-cross-origin",
		"Cache-Control":           "no-store",
	}

	for header, expectedValue := range expectedHeaders {
		if rr.Header().Get(header) != expectedValue {
			t.Errorf("Expected %s: %s, got: %s", header, expectedValue, rr.Header().Get(header))
		}
	}
}

func TestRequestValidationMiddleware(t *testing.T) {
	handler := RequestValidationMiddleware()(okHandler())

	tests := []struct {
		name           string
		method         string
		path           string
		contentType    string
		contentLength  int64
		expectedStatus int
	}{
		{name: "Valid JSON POST", method: "POST", path: "/v1/orders", contentType: "application/json; charset=utf-8", contentLength: 9, expectedStatus: http.StatusOK},
		{name: "Form POST to API", method: "POST", path: "/v1/orders", contentType: "application/x-www-form-urlencoded", contentLength: 9, expectedStatus: http.StatusUnsupportedMediaType},
		{name: "Form POST to webhook", method: "POST", path: "/webhooks/kbank", contentType: "application/x-www-form-urlencoded", contentLength: 9, expectedStatus: http.StatusOK},
		{name: "Webhook without content type", method: "POST", path: "/webhooks/kbank", contentLength: 9, expectedStatus: http.StatusOK},
		{name: "API POST without content type", method: "POST", path: "/v1/orders", contentLength: 9, expectedStatus: http.StatusBadRequest},
		{name: "GET request without content type", method: "GET", path: "/v1/orders/1", expectedStatus: http.StatusOK},
		{name: "POST with unsupported content type", method: "POST", path: "/v1/orders", contentType: "text/plain", contentLength: 9, expectedStatus: http.StatusUnsupportedMediaType},
		{name: "Request too large", method: "POST", path: "/v1/orders", contentType: "application/json", contentLength: 2 << 20, expectedStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader("test body"))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			req.ContentLength = tt.contentLength

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, rr.Code)
			}
		})
	}
}

func TestRequestIDMiddleware(t *testing.T) {
	var seen string
	handler := RequestIDMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	t.Run("reuses inbound id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set(RequestIDHeader, "req-42")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if seen != "req-42" || rr.Header().Get(RequestIDHeader) != "req-42" {
			t.Errorf("Expected req-42 in context and response, got %q / %q", seen, rr.Header().Get(RequestIDHeader))
		}
	})

	t.Run("mints id", func(t *testing.T) {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

		if len(seen) != 36 {
			t.Errorf("Expected a uuid, got %q", seen)
		}
		if rr.Header().Get(RequestIDHeader) != seen {
			t.Error("Response header should echo the minted id")
		}
	})
}

func TestRequestLogMiddleware_CapturesStatus(t *testing.T) {
	var captured *responseWriter
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = w.(*responseWriter)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte("ok"))
	})

	rr := httptest.NewRecorder()
	RequestLogMiddleware()(inner).ServeHTTP(rr, httptest.NewRequest("GET", "/health", nil))

	if rr.Code != http.StatusAccepted {
		t.Errorf("Expected 202, got %d", rr.Code)
	}
	if captured.statusCode != http.StatusAccepted || captured.bytes != 2 {
		t.Errorf("Expected captured status 202 and 2 bytes, got %d and %d", captured.statusCode, captured.bytes)
	}
}
