package nullifier

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"partyreg/pkg/platform/sentinel"
)

func TestConsumeIsFirstWriterWins(t *testing.T) {
	store := NewInMemory()
	ctx := context.Background()

	require.NoError(t, store.Consume(ctx, "0xabc"))

	err := store.Consume(ctx, "0xabc")
	require.ErrorIs(t, err, sentinel.ErrAlreadyUsed)

	used, err := store.Used(ctx, "0xabc")
	require.NoError(t, err)
	require.True(t, used)

	used, err = store.Used(ctx, "0xdef")
	require.NoError(t, err)
	require.False(t, used)
}
