package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func requestLoggerFor(buf *bytes.Buffer, status int, body string) http.Handler {
	logger := slog.New(slog.NewTextHandler(buf, nil))
	return RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	h := requestLoggerFor(&buf, http.StatusCreated, `{"ok":true}`)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
	req.Header.Set("User-Agent", "puremeds-web/1.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	line := buf.String()
	for _, want := range []string{
		"level=INFO", "component=http",
		"method=POST", "path=/api/v1/orders",
		"status=201", "bytes=11", "user_agent=puremeds-web/1.0",
	} {
		if !strings.Contains(line, want) {
			t.Errorf("В записи лога нет %q: %s", want, line)
		}
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		h := requestLoggerFor(&buf, tt.status, "")
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/medicines", nil))
		if !strings.Contains(buf.String(), tt.wantLevel) {
			t.Errorf("Статус %d: нет %q в записи: %s", tt.status, tt.wantLevel, buf.String())
		}
	}
}

func TestRequestLoggerSkipsHealthProbes(t *testing.T) {
	// Успешные ответы проб не логируются, ошибочные — логируются.
	var buf bytes.Buffer
	h := requestLoggerFor(&buf, http.StatusOK, "OK")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if buf.Len() != 0 {
		t.Errorf("Успешная проба попала в лог: %s", buf.String())
	}

	buf.Reset()
	h = requestLoggerFor(&buf, http.StatusServiceUnavailable, "")
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if !strings.Contains(buf.String(), "status=503") {
		t.Errorf("Ошибочная проба не попала в лог: %s", buf.String())
	}
}
