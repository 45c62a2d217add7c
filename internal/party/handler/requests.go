package handler

import (
	"strings"

	"partyreg/internal/party/models"
	"partyreg/internal/verify"
	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
)

// CreatePartyRequest is the HTTP request body for POST /parties.
type CreatePartyRequest struct {
	Name        string `json:"name"`
	ShortName   string `json:"short_name"`
	Description string `json:"description"`
	Link        string `json:"link"`
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreatePartyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	r.ShortName = strings.TrimSpace(r.ShortName)
	r.Description = strings.TrimSpace(r.Description)
	r.Link = strings.TrimSpace(r.Link)

	if err := models.ValidateField("name", r.Name, models.MaxFieldLen); err != nil {
		return err
	}
	if err := models.ValidateField("short_name", r.ShortName, models.MaxShortNameLen); err != nil {
		return err
	}
	if err := models.ValidateField("description", r.Description, models.MaxFieldLen); err != nil {
		return err
	}
	return models.ValidateField("link", r.Link, models.MaxFieldLen)
}

// ProofJoinRequest is the HTTP request body for POST /parties/{partyID}/join-verified.
type ProofJoinRequest struct {
	Root              string `json:"root"`
	GroupID           string `json:"group_id"`
	SignalHash        string `json:"signal_hash"`
	NullifierHash     string `json:"nullifier_hash"`
	ExternalNullifier string `json:"external_nullifier"`
	Proof             string `json:"proof"`
}

func (r *ProofJoinRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if strings.TrimSpace(r.NullifierHash) == "" {
		return dErrors.New(dErrors.CodeValidation, "nullifier_hash is required")
	}
	if strings.TrimSpace(r.Proof) == "" {
		return dErrors.New(dErrors.CodeValidation, "proof is required")
	}
	return nil
}

// ToProof converts the body into the domain proof.
func (r *ProofJoinRequest) ToProof() verify.Proof {
	return verify.Proof{
		Root:              r.Root,
		GroupID:           r.GroupID,
		SignalHash:        r.SignalHash,
		NullifierHash:     r.NullifierHash,
		ExternalNullifier: r.ExternalNullifier,
		Proof:             r.Proof,
	}
}

// TransferLeadershipRequest is the HTTP request body for POST /parties/{partyID}/leader
// and for the forced admin variant.
type TransferLeadershipRequest struct {
	NewLeader string `json:"new_leader"`

	parsedLeader id.Identity
}

func (r *TransferLeadershipRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	leader, err := id.ParseIdentity(strings.TrimSpace(r.NewLeader))
	if err != nil {
		return err
	}
	r.parsedLeader = leader
	return nil
}

// ParsedLeader returns the validated new leader identity.
func (r *TransferLeadershipRequest) ParsedLeader() id.Identity {
	return r.parsedLeader
}

// UpdatePartyRequest is the HTTP request body for PATCH /parties/{partyID}.
// Only the fields present in the body are updated.
type UpdatePartyRequest struct {
	Name        *string `json:"name,omitempty"`
	ShortName   *string `json:"short_name,omitempty"`
	Description *string `json:"description,omitempty"`
	Link        *string `json:"link,omitempty"`
}

func (r *UpdatePartyRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Name == nil && r.ShortName == nil && r.Description == nil && r.Link == nil {
		return dErrors.New(dErrors.CodeValidation, "at least one field must be provided")
	}
	trim := func(s *string) {
		if s != nil {
			*s = strings.TrimSpace(*s)
		}
	}
	trim(r.Name)
	trim(r.ShortName)
	trim(r.Description)
	trim(r.Link)
	return nil
}
