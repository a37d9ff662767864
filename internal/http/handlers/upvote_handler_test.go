package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func TestToggleUpvote_Flow(t *testing.T) {
	env := newHandlerEnv(t)
	r := gin.New()
	r.POST("/complaints/:id/upvote", env.h.ToggleUpvote)

	// Non-UUID id -> 400
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/complaints/nope/upvote", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id -> %d", w.Code)
	}

	// Unknown complaint -> 404
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/complaints/"+uuid.NewString()+"/upvote", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing -> %d", w.Code)
	}

	cp := env.seedComplaint(t)
	toggle := func(user string) UpvoteToggleResponse {
		t.Helper()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/complaints/"+cp.ID+"/upvote", nil)
		req.Header.Set("X-User-ID", user)
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("toggle -> %d body=%s", w.Code, w.Body.String())
		}
		var out UpvoteToggleResponse
		if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
			t.Fatalf("json: %v", err)
		}
		return out
	}

	if got := toggle("u1"); !got.Liked || got.Upvotes != 1 {
		t.Fatalf("first toggle: %+v", got)
	}
	if got := toggle("u2"); !got.Liked || got.Upvotes != 2 {
		t.Fatalf("second user: %+v", got)
	}
	if got := toggle("u1"); got.Liked || got.Upvotes != 1 {
		t.Fatalf("withdraw: %+v", got)
	}
	if got := toggle("u1"); !got.Liked || got.Upvotes != 2 {
		t.Fatalf("re-like: %+v", got)
	}
}
