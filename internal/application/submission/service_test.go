package submission

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mintapp "mintx/internal/application/mint"
	reqdom "mintx/internal/domain/mintRequest"
	"mintx/internal/domain/progress"
	tokendom "mintx/internal/domain/token"
)

type wallet struct {
	addr string
}

func (w wallet) Identity() (string, bool) { return w.addr, w.addr != "" }

type fakeRepo struct {
	mu    sync.Mutex
	items map[string]Submission
	saves int
}

func newFakeRepo() *fakeRepo { return &fakeRepo{items: map[string]Submission{}} }

func (r *fakeRepo) Save(_ context.Context, s Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = s
	r.saves++
	return nil
}

func (r *fakeRepo) Get(_ context.Context, id string) (Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

// gatedMinter reports one uploading state, then blocks until released.
type gatedMinter struct {
	release chan struct{}
	err     error
}

func (m *gatedMinter) Submit(ctx context.Context, id string, req reqdom.MintRequest, sink progress.Sink) (mintapp.Report, error) {
	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Processing fee payment...", Percent: 10})
	select {
	case <-m.release:
	case <-ctx.Done():
		sink.Report(progress.State{Status: progress.StatusError, Message: "Error: canceled"})
		return mintapp.Report{RequestID: id, Outcome: mintapp.OutcomeNothingPaid}, &mintapp.StepError{Kind: mintapp.KindFeePaymentFailed, Err: ctx.Err()}
	}
	if m.err != nil {
		sink.Report(progress.State{Status: progress.StatusError, Message: "Error uploading image (3 failed attempts)"})
		return mintapp.Report{RequestID: id, Outcome: mintapp.OutcomeFeePaidNothingMinted, FeePaid: 20_000_000}, m.err
	}
	sink.Report(progress.State{Status: progress.StatusDone, Message: "Token created and minted successfully!", Percent: 100})
	return mintapp.Report{
		RequestID:  id,
		Outcome:    mintapp.OutcomeCompleted,
		FeePaid:    20_000_000,
		Result:     &tokendom.MintResult{MintAddress: "mint", MetadataURI: "uri", TokenAccountAddress: "ata"},
		Signatures: map[string]string{"fee": "sig"},
	}, nil
}

func waitFinished(t *testing.T, svc *Service, id string) Submission {
	t.Helper()
	var got Submission
	require.Eventually(t, func() bool {
		s, err := svc.Get(context.Background(), id)
		if err != nil {
			return false
		}
		got = s
		_, running := svc.Running(s.Wallet)
		return s.Finished() && !running
	}, 2*time.Second, 5*time.Millisecond)
	return got
}

func TestServiceRunsAndPersists(t *testing.T) {
	repo := newFakeRepo()
	m := &gatedMinter{release: make(chan struct{})}
	svc := NewService(m, wallet{addr: "W1"}, repo)

	id, err := svc.Start(context.Background(), reqdom.MintRequest{Name: "T", Symbol: "TT"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	require.Eventually(t, func() bool {
		s, _ := svc.Get(context.Background(), id)
		return s.Progress.Status == progress.StatusUploading
	}, time.Second, time.Millisecond)

	_, running := svc.Running("W1")
	assert.True(t, running)

	close(m.release)
	got := waitFinished(t, svc, id)

	assert.Equal(t, progress.StatusDone, got.Progress.Status)
	assert.Equal(t, mintapp.OutcomeCompleted, got.Outcome)
	require.NotNil(t, got.Result)
	assert.Equal(t, "mint", got.Result.MintAddress)
	assert.Equal(t, "TT", got.Symbol)
	assert.Empty(t, got.Error)

	stored, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, got.Outcome, stored.Outcome)
	assert.GreaterOrEqual(t, repo.saves, 4, "initial + each transition + final")
}

func TestServiceRejectsConcurrentSubmissionForSameWallet(t *testing.T) {
	m := &gatedMinter{release: make(chan struct{})}
	svc := NewService(m, wallet{addr: "W1"}, newFakeRepo())

	id, err := svc.Start(context.Background(), reqdom.MintRequest{})
	require.NoError(t, err)

	_, err = svc.Start(context.Background(), reqdom.MintRequest{})
	assert.ErrorIs(t, err, ErrBusy)

	close(m.release)
	waitFinished(t, svc, id)

	// 終了後は再送できる
	_, err = svc.Start(context.Background(), reqdom.MintRequest{})
	assert.NoError(t, err)
	require.NoError(t, svc.Shutdown(context.Background()))
}

func TestServiceRecordsFailure(t *testing.T) {
	m := &gatedMinter{
		release: make(chan struct{}),
		err:     &mintapp.StepError{Kind: mintapp.KindImageUploadFailed, Attempts: 3, Err: errors.New("irys down")},
	}
	close(m.release)
	svc := NewService(m, wallet{addr: "W1"}, newFakeRepo())

	id, err := svc.Start(context.Background(), reqdom.MintRequest{})
	require.NoError(t, err)
	got := waitFinished(t, svc, id)

	assert.Equal(t, progress.StatusError, got.Progress.Status)
	assert.Equal(t, "ImageUploadFailed", got.ErrorKind)
	assert.Contains(t, got.Error, "irys down")
	assert.Equal(t, mintapp.OutcomeFeePaidNothingMinted, got.Outcome)
	assert.Nil(t, got.Result)
}

func TestServiceWalletMissing(t *testing.T) {
	svc := NewService(&gatedMinter{}, wallet{}, newFakeRepo())
	_, err := svc.Start(context.Background(), reqdom.MintRequest{})
	assert.ErrorIs(t, err, mintapp.ErrWalletNotConnected)
}

func TestServiceGetUnknown(t *testing.T) {
	svc := NewService(&gatedMinter{}, wallet{addr: "W1"}, newFakeRepo())
	_, err := svc.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.Get(context.Background(), " ")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestServiceShutdownCancelsRunning(t *testing.T) {
	m := &gatedMinter{release: make(chan struct{})}
	repo := newFakeRepo()
	svc := NewService(m, wallet{addr: "W1"}, repo)

	id, err := svc.Start(context.Background(), reqdom.MintRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, svc.Shutdown(ctx))

	stored, err := repo.Get(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, progress.StatusError, stored.Progress.Status)
	assert.Equal(t, "FeePaymentFailed", stored.ErrorKind)
}
