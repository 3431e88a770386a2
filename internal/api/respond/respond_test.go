package respond

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteInternalError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteInternalError(rr, "Error updating Remote Config", errors.New("boom"))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("content-type = %q", ct)
	}
	want := `{"error":"Error updating Remote Config","details":"boom"}` + "\n"
	if rr.Body.String() != want {
		t.Fatalf("body = %q, want %q", rr.Body.String(), want)
	}
}

func TestWriteBadRequestOmitsDetails(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteBadRequest(rr, "configs must be an array")
	want := `{"error":"configs must be an array"}` + "\n"
	if rr.Code != http.StatusBadRequest || rr.Body.String() != want {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
}
