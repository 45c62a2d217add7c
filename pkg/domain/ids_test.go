package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "partyreg/pkg/domain-errors"
)

func TestParseIdentity(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseIdentity("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects whitespace-only string", func(t *testing.T) {
		_, err := ParseIdentity("   ")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("trims surrounding whitespace", func(t *testing.T) {
		id, err := ParseIdentity("  alice  ")
		require.NoError(t, err)
		assert.Equal(t, Identity("alice"), id)
	})
}

func TestParsePartyID(t *testing.T) {
	t.Run("rejects zero, the NoParty sentinel", func(t *testing.T) {
		_, err := ParsePartyID("0")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("rejects non-numeric input", func(t *testing.T) {
		_, err := ParsePartyID("abc")
		require.Error(t, err)
	})

	t.Run("accepts positive integers", func(t *testing.T) {
		id, err := ParsePartyID("42")
		require.NoError(t, err)
		assert.Equal(t, PartyID(42), id)
	})
}
