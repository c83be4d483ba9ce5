package httputil

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSON(rec, http.StatusCreated, map[string]string{"token": "abc"})

	if rec.Code != http.StatusCreated {
		t.Errorf("got status %d, want 201", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("got Content-Type %q", ct)
	}
	if !strings.Contains(rec.Body.String(), `"token":"abc"`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestWriteJSONError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteJSONError(rec, http.StatusUnauthorized, "Invalid token.")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("got status %d, want 401", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"detail":"Invalid token."`) {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}
