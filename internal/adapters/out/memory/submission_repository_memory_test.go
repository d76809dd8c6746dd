package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mintx/internal/application/submission"
	"mintx/internal/domain/progress"
)

func TestSaveAndGet(t *testing.T) {
	repo := NewSubmissionRepository()
	ctx := context.Background()

	s := submission.Submission{
		ID:         "s1",
		Wallet:     "w",
		Progress:   progress.State{Status: progress.StatusUploading, Percent: 40},
		Signatures: map[string]string{"fee": "sig1"},
	}
	require.NoError(t, repo.Save(ctx, s))

	s.Signatures["mint"] = "sig2"
	got, err := repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"fee": "sig1"}, got.Signatures, "stored copy is isolated")

	s.Progress = progress.State{Status: progress.StatusDone, Percent: 100}
	require.NoError(t, repo.Save(ctx, s))
	got, err = repo.Get(ctx, "s1")
	require.NoError(t, err)
	assert.True(t, got.Finished())
	assert.Len(t, got.Signatures, 2)
}

func TestGetUnknown(t *testing.T) {
	_, err := NewSubmissionRepository().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, submission.ErrNotFound)
}
