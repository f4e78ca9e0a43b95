package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindValidation, http.StatusBadRequest},
		{KindAuthentication, http.StatusUnauthorized},
		{KindAuthorization, http.StatusForbidden},
		{KindNotFound, http.StatusNotFound},
		{KindRateLimited, http.StatusTooManyRequests},
		{KindUpstream, http.StatusServiceUnavailable},
		{KindPartial, http.StatusMultiStatus},
		{KindInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		if got := New(tt.kind, "x").Status(); got != tt.want {
			t.Errorf("kind %d: status = %d, want %d", tt.kind, got, tt.want)
		}
	}
}

func TestWriteEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	Write(rec, Forbidden("upgrade to use backups").WithCode("UPGRADE_REQUIRED"))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q", ct)
	}

	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error != "upgrade to use backups" || body.Code != "UPGRADE_REQUIRED" {
		t.Errorf("body = %+v", body)
	}
}

// The client-facing message never includes the wrapped internal error.
func TestWrappedErrorStaysInternal(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	e := Upstream(cause)

	if !errors.Is(e, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}

	rec := httptest.NewRecorder()
	Write(rec, e)
	if got := rec.Body.String(); got == "" || strings.Contains(got, "10.0.0.5") {
		t.Errorf("response leaked internals: %s", got)
	}
}
