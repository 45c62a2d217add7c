package handler

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"partyreg/internal/party/models"
	"partyreg/internal/party/service"
	"partyreg/internal/party/store"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	admintoken "partyreg/pkg/platform/middleware/admin"
	"partyreg/pkg/platform/middleware/auth"
)

const adminToken = "secret-token"

var signingKey = []byte("test-signing-key")

func TestAdminTokenRequired(t *testing.T) {
	router := newRegistryRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/admin/parties/1/approve", nil)
	// No admin token header set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 when admin token missing, got %d", rec.Code)
	}
}

func TestIdentityRequired(t *testing.T) {
	router := newRegistryRouter(t)
	body, _ := json.Marshal(map[string]string{
		"name": "Party", "short_name": "P", "description": "d", "link": "l",
	})
	req := httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	// No bearer token set
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without bearer token, got %d", rec.Code)
	}
}

func TestPartyLifecycleViaHandlers(t *testing.T) {
	router := newRegistryRouter(t)

	partyID := createParty(t, router, "founder")

	// Approve requires the admin token.
	approveReq := httptest.NewRequest(http.MethodPost, "/admin/parties/"+partyID+"/approve", nil)
	approveReq.Header.Set("X-Admin-Token", adminToken)
	approveRec := httptest.NewRecorder()
	router.ServeHTTP(approveRec, approveReq)
	if approveRec.Code != http.StatusOK {
		t.Fatalf("expected 200 approving party, got %d: %s", approveRec.Code, approveRec.Body.String())
	}

	// Another identity joins.
	joinReq := authed(t, httptest.NewRequest(http.MethodPost, "/parties/"+partyID+"/join", nil), "member")
	joinRec := httptest.NewRecorder()
	router.ServeHTTP(joinRec, joinReq)
	if joinRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 joining, got %d: %s", joinRec.Code, joinRec.Body.String())
	}

	// Fetch details and verify counts.
	getReq := httptest.NewRequest(http.MethodGet, "/parties/"+partyID, nil)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	if getRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching party, got %d", getRec.Code)
	}
	var details struct {
		Status        string `json:"status"`
		MemberCount   int    `json:"member_count"`
		CurrentLeader string `json:"current_leader"`
	}
	if err := json.NewDecoder(getRec.Body).Decode(&details); err != nil {
		t.Fatalf("failed to decode party details: %v", err)
	}
	if details.Status != "active" {
		t.Fatalf("expected active status, got %q", details.Status)
	}
	if details.MemberCount != 2 {
		t.Fatalf("expected member_count 2, got %d", details.MemberCount)
	}

	// Founder hands leadership to the new member.
	transferBody, _ := json.Marshal(map[string]string{"new_leader": "member"})
	transferReq := authed(t, httptest.NewRequest(http.MethodPost, "/parties/"+partyID+"/leader", bytes.NewReader(transferBody)), "founder")
	transferReq.Header.Set("Content-Type", "application/json")
	transferRec := httptest.NewRecorder()
	router.ServeHTTP(transferRec, transferReq)
	if transferRec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 transferring leadership, got %d: %s", transferRec.Code, transferRec.Body.String())
	}

	historyReq := httptest.NewRequest(http.MethodGet, "/parties/"+partyID+"/leadership/0", nil)
	historyRec := httptest.NewRecorder()
	router.ServeHTTP(historyRec, historyReq)
	if historyRec.Code != http.StatusOK {
		t.Fatalf("expected 200 fetching leadership entry, got %d", historyRec.Code)
	}
	var entry struct {
		PreviousLeader string `json:"previous_leader"`
		NewLeader      string `json:"new_leader"`
	}
	if err := json.NewDecoder(historyRec.Body).Decode(&entry); err != nil {
		t.Fatalf("failed to decode leadership entry: %v", err)
	}
	if entry.PreviousLeader != "founder" || entry.NewLeader != "member" {
		t.Fatalf("unexpected leadership entry: %+v", entry)
	}
}

func TestCreatePartyValidation(t *testing.T) {
	router := newRegistryRouter(t)

	cases := []struct {
		name string
		body map[string]string
	}{
		{"missing name", map[string]string{"short_name": "P", "description": "d", "link": "l"}},
		{"short name too long", map[string]string{"name": "N", "short_name": "seventeen chars!!", "description": "d", "link": "l"}},
		{"missing link", map[string]string{"name": "N", "short_name": "P", "description": "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(tc.body)
			req := authed(t, httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body)), "founder")
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestUnknownPartyReturns404(t *testing.T) {
	router := newRegistryRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/parties/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown party, got %d", rec.Code)
	}
}

func TestPatchPartyMetadata(t *testing.T) {
	router := newRegistryRouter(t)
	partyID := createParty(t, router, "founder")

	body, _ := json.Marshal(map[string]string{"name": "Renamed", "link": "https://new.example"})
	req := authed(t, httptest.NewRequest(http.MethodPatch, "/parties/"+partyID, bytes.NewReader(body)), "founder")
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 patching party, got %d: %s", rec.Code, rec.Body.String())
	}

	var details struct {
		Name string `json:"name"`
		Link string `json:"link"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&details); err != nil {
		t.Fatalf("failed to decode party details: %v", err)
	}
	if details.Name != "Renamed" || details.Link != "https://new.example" {
		t.Fatalf("unexpected details after patch: %+v", details)
	}

	// Only the leader may patch.
	stranger := authed(t, httptest.NewRequest(http.MethodPatch, "/parties/"+partyID, bytes.NewReader(body)), "stranger")
	stranger.Header.Set("Content-Type", "application/json")
	strangerRec := httptest.NewRecorder()
	router.ServeHTTP(strangerRec, stranger)
	if strangerRec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-leader patch, got %d", strangerRec.Code)
	}
}

func TestPauseToggleViaHandlers(t *testing.T) {
	router := newRegistryRouter(t)
	partyID := createParty(t, router, "founder")

	pauseReq := httptest.NewRequest(http.MethodPost, "/admin/registry/pause", nil)
	pauseReq.Header.Set("X-Admin-Token", adminToken)
	pauseRec := httptest.NewRecorder()
	router.ServeHTTP(pauseRec, pauseReq)
	if pauseRec.Code != http.StatusOK {
		t.Fatalf("expected 200 toggling pause, got %d", pauseRec.Code)
	}

	joinReq := authed(t, httptest.NewRequest(http.MethodPost, "/parties/"+partyID+"/join", nil), "member")
	joinRec := httptest.NewRecorder()
	router.ServeHTTP(joinRec, joinReq)
	if joinRec.Code != http.StatusConflict {
		t.Fatalf("expected 409 joining while paused, got %d", joinRec.Code)
	}

	statusReq := httptest.NewRequest(http.MethodGet, "/registry/status", nil)
	statusRec := httptest.NewRecorder()
	router.ServeHTTP(statusRec, statusReq)
	var status StatusResponse
	if err := json.NewDecoder(statusRec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if !status.Paused {
		t.Fatalf("expected paused status")
	}
}

func createParty(t *testing.T, router http.Handler, founder string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"name":        "Party of " + founder,
		"short_name":  "POF",
		"description": "a test party",
		"link":        "https://example.org",
	})
	req := authed(t, httptest.NewRequest(http.MethodPost, "/parties", bytes.NewReader(body)), founder)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 creating party, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID json.Number `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("failed to decode create response: %v", err)
	}
	return created.ID.String()
}

func authed(t *testing.T, req *http.Request, identity string) *http.Request {
	t.Helper()
	token, err := auth.Token(signingKey, id.Identity(identity))
	if err != nil {
		t.Fatalf("failed to mint token: %v", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func newRegistryRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	svc := service.New(store.NewRegistry(), verify.NewStaticVerifier(), models.DefaultPolicy(), service.WithLogger(logger))

	h := New(svc, logger)
	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireIdentity(signingKey, logger))
		h.Register(r)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(admintoken.RequireAdminToken(adminToken, logger))
		h.RegisterAdmin(r)
	})
	return r
}
