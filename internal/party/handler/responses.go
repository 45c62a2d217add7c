package handler

import (
	id "partyreg/pkg/domain"
)

// StatusResponse is the HTTP response for GET /registry/status.
type StatusResponse struct {
	Paused       bool `json:"paused"`
	PendingCount int  `json:"pending_count"`
	ActiveCount  int  `json:"active_count"`
}

// PauseResponse is the HTTP response for POST /admin/registry/pause.
type PauseResponse struct {
	Paused bool `json:"paused"`
}

// UserPartiesResponse lists the party IDs an identity belongs to or leads.
type UserPartiesResponse struct {
	PartyIDs []id.PartyID `json:"party_ids"`
}
