package events

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "partyreg/pkg/domain"
	"partyreg/pkg/platform/httputil"
)

// Handler serves the per-party event log.
type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func (h *Handler) RegisterPublic(r chi.Router) {
	r.Get("/parties/{partyID}/events", h.HandleListByParty)
}

func (h *Handler) HandleListByParty(w http.ResponseWriter, r *http.Request) {
	partyID, err := id.ParsePartyID(chi.URLParam(r, "partyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	list, err := h.store.ListByParty(r.Context(), partyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, list)
}
