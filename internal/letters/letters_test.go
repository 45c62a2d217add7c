package letters

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	id "partyreg/pkg/domain"
	dErrors "partyreg/pkg/domain-errors"
	"partyreg/pkg/requestcontext"
)

func newTestService() (*Service, context.Context) {
	svc := NewService(NewStore())
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	return svc, ctx
}

func TestCreateAndSignLetter(t *testing.T) {
	svc, ctx := newTestService()

	letter, err := svc.CreateLetter(ctx, "author", "An Open Letter", "We the undersigned...")
	require.NoError(t, err)
	require.Equal(t, id.LetterID(1), letter.ID)
	require.Equal(t, 1, letter.SignatureCount)
	require.True(t, letter.Signed("author"))

	require.NoError(t, svc.SignLetter(ctx, letter.ID, "supporter"))

	got, err := svc.GetLetter(ctx, letter.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.SignatureCount)
	require.True(t, got.Signed("supporter"))
}

func TestSignLetterOncePerIdentity(t *testing.T) {
	svc, ctx := newTestService()
	letter, err := svc.CreateLetter(ctx, "author", "Title", "Content")
	require.NoError(t, err)

	// The author's implicit signature also blocks an explicit repeat.
	err = svc.SignLetter(ctx, letter.ID, "author")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))

	require.NoError(t, svc.SignLetter(ctx, letter.ID, "supporter"))
	err = svc.SignLetter(ctx, letter.ID, "supporter")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestSignUnknownLetter(t *testing.T) {
	svc, ctx := newTestService()
	err := svc.SignLetter(ctx, 9, "supporter")
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCreateLetterValidation(t *testing.T) {
	svc, ctx := newTestService()

	_, err := svc.CreateLetter(ctx, "author", "", "content")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.CreateLetter(ctx, "author", strings.Repeat("x", MaxTitleLen+1), "content")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = svc.CreateLetter(ctx, "", "title", "content")
	require.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestSignaturesPagination(t *testing.T) {
	svc, ctx := newTestService()
	letter, err := svc.CreateLetter(ctx, "author", "Title", "Content")
	require.NoError(t, err)
	for _, signer := range []id.Identity{"a", "b", "c"} {
		require.NoError(t, svc.SignLetter(ctx, letter.ID, signer))
	}

	page, err := svc.GetSignatures(ctx, letter.ID, 1, 2)
	require.NoError(t, err)
	require.Equal(t, []id.Identity{"a", "b"}, page)

	// Count clamps at the end of the log.
	page, err = svc.GetSignatures(ctx, letter.ID, 3, 10)
	require.NoError(t, err)
	require.Equal(t, []id.Identity{"c"}, page)

	_, err = svc.GetSignatures(ctx, letter.ID, 4, 1)
	require.Error(t, err)
	require.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
