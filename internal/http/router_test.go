package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	electionhandler "partyreg/internal/election/handler"
	electionservice "partyreg/internal/election/service"
	electionstore "partyreg/internal/election/store"
	"partyreg/internal/events"
	"partyreg/internal/ledger"
	"partyreg/internal/letters"
	partyhandler "partyreg/internal/party/handler"
	"partyreg/internal/party/models"
	partyservice "partyreg/internal/party/service"
	partystore "partyreg/internal/party/store"
	"partyreg/internal/platform/logger"
	"partyreg/internal/rewards"
	snapshothandler "partyreg/internal/snapshot/handler"
	snapshotservice "partyreg/internal/snapshot/service"
	snapstore "partyreg/internal/snapshot/store"
	"partyreg/internal/verify"
	"partyreg/pkg/platform/middleware/auth"
	"partyreg/pkg/testutil"
)

const adminToken = "router-test-token"

var signingKey = []byte("router-test-signing-key")

func newTestRouter() http.Handler {
	log := logger.New()
	verifier := verify.NewStaticVerifier()
	registry := partystore.NewRegistry()

	parties := partyservice.New(registry, verifier, models.DefaultPolicy())
	snapshots := snapshotservice.New(registry, snapstore.NewLedger(0))
	elections := electionservice.New(electionstore.NewTally(), verifier)
	lettersSvc := letters.NewService(letters.NewStore())
	rewardsSvc := rewards.NewService(ledger.NewInMemory(), verifier)

	return NewRouter(Deps{
		Party:      partyhandler.New(parties, log),
		Snapshot:   snapshothandler.New(snapshots, log),
		Election:   electionhandler.New(elections, log),
		Letters:    letters.NewHandler(lettersSvc, log),
		Rewards:    rewards.NewHandler(rewardsSvc, log),
		Events:     events.NewHandler(events.NewInMemoryStore()),
		AdminToken: adminToken,
		SigningKey: signingKey,
		Logger:     log,
	})
}

func TestRouterMiddlewareChains(t *testing.T) {
	testutil.Given(t, "the assembled router", func(t *testing.T) {
		router := newTestRouter()

		testutil.When(t, "probing the health endpoint", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			testutil.Then(t, "it should respond OK", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "scraping metrics", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

			testutil.Then(t, "it should expose the registry", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "reading public state without credentials", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/registry/status", nil))

			testutil.Then(t, "it should not require identity", func(t *testing.T) {
				if rec.Code != http.StatusOK {
					t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
				}
			})
		})

		testutil.When(t, "mutating without a bearer token", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/elections/current/votes", nil))

			testutil.Then(t, "it should reject the request", func(t *testing.T) {
				if rec.Code != http.StatusUnauthorized {
					t.Fatalf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
				}
			})
		})

		testutil.When(t, "mutating with a valid bearer token", func(t *testing.T) {
			token, err := auth.Token(signingKey, "alice")
			if err != nil {
				t.Fatalf("failed to mint token: %v", err)
			}
			req := httptest.NewRequest(http.MethodDelete, "/elections/current/votes", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should reach the handler", func(t *testing.T) {
				// 404 from the tally, not 401 from the middleware.
				if rec.Code != http.StatusNotFound {
					t.Fatalf("expected status %d, got %d", http.StatusNotFound, rec.Code)
				}
			})
		})

		testutil.When(t, "calling an admin route without the token", func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/admin/elections", nil))

			testutil.Then(t, "it should reject the request", func(t *testing.T) {
				if rec.Code != http.StatusForbidden {
					t.Fatalf("expected status %d, got %d", http.StatusForbidden, rec.Code)
				}
			})
		})

		testutil.When(t, "calling an admin route with the token", func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/admin/elections", nil)
			req.Header.Set("X-Admin-Token", adminToken)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			testutil.Then(t, "it should reach the handler", func(t *testing.T) {
				if rec.Code != http.StatusCreated {
					t.Fatalf("expected status %d, got %d", http.StatusCreated, rec.Code)
				}
			})
		})
	})
}
