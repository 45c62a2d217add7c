package verify

import (
	"context"
	"encoding/hex"

	"golang.org/x/crypto/sha3"

	dErrors "partyreg/pkg/domain-errors"
)

// Proof is a one-time proof-of-personhood credential. The core treats its
// fields as opaque; only the oracle interprets them. Callers are responsible
// for consuming the nullifier before accepting the proof.
type Proof struct {
	Root              string `json:"root"`
	GroupID           string `json:"group_id"`
	SignalHash        string `json:"signal_hash"`
	NullifierHash     string `json:"nullifier_hash"`
	ExternalNullifier string `json:"external_nullifier"`
	Proof             string `json:"proof"`
}

// Oracle validates a personhood proof. A rejection is terminal: the same
// proof must never be silently retried.
type Oracle interface {
	Verify(ctx context.Context, proof Proof) error
}

// ErrProofInvalid is what oracles return for rejected proofs, already coded
// for transport.
var ErrProofInvalid = dErrors.New(dErrors.CodeForbidden, "personhood proof rejected")

// StaticOracle is a development stand-in for the real proof system. It
// accepts proofs whose signal hash matches the sha3 digest of the nullifier
// fields, which lets tests mint valid proofs without a prover.
type StaticOracle struct{}

func NewStaticOracle() *StaticOracle {
	return &StaticOracle{}
}

func (o *StaticOracle) Verify(_ context.Context, proof Proof) error {
	if proof.Root == "" || proof.NullifierHash == "" || proof.Proof == "" {
		return ErrProofInvalid
	}
	if proof.SignalHash != SignalHash(proof.NullifierHash, proof.ExternalNullifier) {
		return ErrProofInvalid
	}
	return nil
}

// SignalHash derives the expected signal hash for the static oracle. Tests
// use it to construct acceptable proofs.
func SignalHash(nullifierHash, externalNullifier string) string {
	digest := sha3.Sum256([]byte(nullifierHash + ":" + externalNullifier))
	return hex.EncodeToString(digest[:])
}
