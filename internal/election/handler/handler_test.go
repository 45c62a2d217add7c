package handler

import (
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"partyreg/internal/election/service"
	"partyreg/internal/election/store"
	"partyreg/internal/platform/logger"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	"partyreg/pkg/testutil"
)

// newElectionRouter mounts all election routes on a bare router. Caller and
// admin context is injected per request through the testutil helpers, which
// mirror what the middleware stack does in production.
func newElectionRouter(t *testing.T) (chi.Router, *verify.StaticVerifier) {
	t.Helper()

	verifier := verify.NewStaticVerifier()
	svc := service.New(store.NewTally(), verifier, service.WithLogger(logger.New()))
	h := New(svc, logger.New())

	r := chi.NewRouter()
	h.Register(r)
	h.RegisterPublic(r)
	h.RegisterAdmin(r)
	return r, verifier
}

func TestVoteRequiresIdentity(t *testing.T) {
	router, _ := newElectionRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/elections/current/votes", VoteRequest{PartyID: 1})
	rr := testutil.DoRequest(router, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestVoteRequiresVerification(t *testing.T) {
	router, _ := newElectionRouter(t)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/elections/current/votes", VoteRequest{PartyID: 1})
	rr := testutil.DoRequest(router, testutil.WithCaller(req, "stranger"))
	require.Equal(t, http.StatusForbidden, rr.Code)
}

func TestVoteLifecycleOverHTTP(t *testing.T) {
	router, verifier := newElectionRouter(t)
	verifier.Set("alice", verify.TierOrb)

	// No vote yet.
	rr := testutil.DoRequest(router, testutil.WithCaller(
		testutil.NewJSONRequest(t, http.MethodGet, "/elections/current/votes/me", nil), "alice"))
	require.Equal(t, http.StatusOK, rr.Code)
	var mine MyVoteResponse
	testutil.UnmarshalResponse(t, rr, &mine)
	require.Equal(t, id.ElectionID(1), mine.ElectionID)
	require.Equal(t, id.NoParty, mine.PartyID)

	// Cast, then read back.
	rr = testutil.DoRequest(router, testutil.WithCaller(
		testutil.NewJSONRequest(t, http.MethodPost, "/elections/current/votes", VoteRequest{PartyID: 5}), "alice"))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(router, testutil.WithCaller(
		testutil.NewJSONRequest(t, http.MethodGet, "/elections/current/votes/me", nil), "alice"))
	testutil.UnmarshalResponse(t, rr, &mine)
	require.Equal(t, id.PartyID(5), mine.PartyID)

	rr = testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodGet, "/elections/1/parties/5", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var count VoteCountResponse
	testutil.UnmarshalResponse(t, rr, &count)
	require.Equal(t, uint64(1), count.Votes)

	// Repeating the same vote is rejected.
	rr = testutil.DoRequest(router, testutil.WithCaller(
		testutil.NewJSONRequest(t, http.MethodPost, "/elections/current/votes", VoteRequest{PartyID: 5}), "alice"))
	require.Equal(t, http.StatusConflict, rr.Code)

	// Removing clears the tally.
	rr = testutil.DoRequest(router, testutil.WithCaller(
		testutil.NewJSONRequest(t, http.MethodDelete, "/elections/current/votes", nil), "alice"))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodGet, "/elections/1/parties/5", nil))
	testutil.UnmarshalResponse(t, rr, &count)
	require.Equal(t, uint64(0), count.Votes)
}

func TestStartElectionAdvancesCurrent(t *testing.T) {
	router, verifier := newElectionRouter(t)
	verifier.Set("alice", verify.TierDocument)

	rr := testutil.DoRequest(router, testutil.WithCaller(
		testutil.NewJSONRequest(t, http.MethodPost, "/elections/current/votes", VoteRequest{PartyID: 2}), "alice"))
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = testutil.DoRequest(router, testutil.WithAdmin(
		testutil.NewJSONRequest(t, http.MethodPost, "/elections", nil)))
	require.Equal(t, http.StatusCreated, rr.Code)
	var started ElectionResponse
	testutil.UnmarshalResponse(t, rr, &started)
	require.Equal(t, id.ElectionID(2), started.ElectionID)

	// Previous cycle stays queryable.
	rr = testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodGet, "/elections/1/results", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var results ResultsResponse
	testutil.UnmarshalResponse(t, rr, &results)
	require.Equal(t, uint64(1), results.Results[id.PartyID(2)])

	var current ElectionResponse
	rr = testutil.DoRequest(router,
		testutil.NewJSONRequest(t, http.MethodGet, "/elections/current", nil))
	testutil.UnmarshalResponse(t, rr, &current)
	require.Equal(t, id.ElectionID(2), current.ElectionID)
}

func TestVoteValidation(t *testing.T) {
	router, verifier := newElectionRouter(t)
	verifier.Set("alice", verify.TierOrb)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/elections/current/votes", VoteRequest{PartyID: 0})
	rr := testutil.DoRequest(router, testutil.WithCaller(req, "alice"))
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
