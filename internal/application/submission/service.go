// internal/application/submission/service.go
package submission

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	mintapp "mintx/internal/application/mint"
	reqdom "mintx/internal/domain/mintRequest"
	"mintx/internal/domain/progress"
)

// Minter は Orchestrator の最小 IF（*mint.MintUsecase が満たす）
type Minter interface {
	Submit(ctx context.Context, requestID string, req reqdom.MintRequest, sink progress.Sink) (mintapp.Report, error)
}

// Tracker counts running submissions (prometheus gauge in production).
type Tracker interface {
	Started()
	Finished()
}

type nopTracker struct{}

func (nopTracker) Started()  {}
func (nopTracker) Finished() {}

// run は実行中の 1 件分の状態です。
type run struct {
	reporter *progress.Reporter
	wallet   string
	snapshot Submission
}

// Service runs submissions in the background, one at a time per wallet,
// and persists every progress transition through the Repository.
type Service struct {
	minter Minter
	wallet mintapp.WalletSigner
	repo   Repository

	logger  *zap.Logger
	tracker Tracker
	now     func() time.Time

	// 実行は HTTP リクエストの ctx ではなくこの ctx にぶら下げる
	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	mu     sync.Mutex
	busy   map[string]string // wallet -> submission id
	active map[string]*run   // submission id -> run
}

func NewService(minter Minter, wallet mintapp.WalletSigner, repo Repository) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		minter:  minter,
		wallet:  wallet,
		repo:    repo,
		logger:  zap.NewNop(),
		tracker: nopTracker{},
		now:     func() time.Time { return time.Now().UTC() },
		baseCtx: ctx,
		cancel:  cancel,
		busy:    map[string]string{},
		active:  map[string]*run{},
	}
}

func (s *Service) SetLogger(l *zap.Logger) {
	if l != nil {
		s.logger = l.Named("submission")
	}
}

func (s *Service) SetTracker(t Tracker) {
	if t != nil {
		s.tracker = t
	}
}

// Start validates the wallet, records a new submission and runs it asynchronously.
// Returns ErrBusy while another submission for the same wallet is still running.
func (s *Service) Start(ctx context.Context, req reqdom.MintRequest) (string, error) {
	identity, ok := s.wallet.Identity()
	identity = strings.TrimSpace(identity)
	if !ok || identity == "" {
		return "", mintapp.ErrWalletNotConnected
	}

	s.mu.Lock()
	if id, running := s.busy[identity]; running {
		s.mu.Unlock()
		s.logger.Info("rejected: wallet busy", zap.String("running", id))
		return "", ErrBusy
	}

	id := uuid.NewString()
	now := s.now()
	r := &run{
		wallet: identity,
		snapshot: Submission{
			ID:        id,
			Wallet:    identity,
			Name:      req.Name,
			Symbol:    req.Symbol,
			Progress:  progress.State{Status: progress.StatusIdle},
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
	r.reporter = progress.NewReporter(func(st progress.State) { s.onProgress(id, st) })
	s.busy[identity] = id
	s.active[id] = r
	s.mu.Unlock()

	if err := s.repo.Save(ctx, r.snapshot); err != nil {
		s.release(id)
		return "", errors.Wrap(err, "submission: save")
	}

	s.tracker.Started()
	s.wg.Add(1)
	go s.execute(id, req, r.reporter)

	s.logger.Info("submission started", zap.String("id", id), zap.String("symbol", req.Symbol))
	return id, nil
}

func (s *Service) execute(id string, req reqdom.MintRequest, reporter *progress.Reporter) {
	defer s.wg.Done()
	defer s.tracker.Finished()
	defer s.release(id)

	rep, err := s.minter.Submit(s.baseCtx, id, req, reporter)

	s.mu.Lock()
	r := s.active[id]
	snap := r.snapshot
	snap.Progress = reporter.Current()
	snap.Outcome = rep.Outcome
	snap.FeePaid = rep.FeePaid
	snap.Result = rep.Result
	snap.Signatures = lo.Assign(map[string]string{}, rep.Signatures)
	if err != nil {
		snap.ErrorKind = string(mintapp.KindOf(err))
		snap.Error = err.Error()
	}
	snap.UpdatedAt = s.now()
	r.snapshot = snap
	s.mu.Unlock()

	// 終了後の保存は送信 ctx がキャンセルされていても行う
	saveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := s.repo.Save(saveCtx, snap); serr != nil {
		s.logger.Error("final save failed", zap.String("id", id), zap.Error(serr))
	}

	if err != nil {
		s.logger.Warn("submission failed", zap.String("id", id), zap.String("outcome", string(rep.Outcome)), zap.Error(err))
		return
	}
	s.logger.Info("submission finished", zap.String("id", id), zap.String("mint", rep.Result.MintAddress))
}

// onProgress は Reporter の observer。各遷移をそのまま保存します。
func (s *Service) onProgress(id string, st progress.State) {
	s.mu.Lock()
	r, ok := s.active[id]
	if !ok {
		s.mu.Unlock()
		return
	}
	r.snapshot.Progress = st
	r.snapshot.UpdatedAt = s.now()
	snap := r.snapshot
	s.mu.Unlock()

	if err := s.repo.Save(s.baseCtx, snap); err != nil {
		s.logger.Warn("progress save failed", zap.String("id", id), zap.Error(err))
	}
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.active[id]
	if !ok {
		return
	}
	if s.busy[r.wallet] == id {
		delete(s.busy, r.wallet)
	}
	delete(s.active, id)
}

// Get returns the live snapshot while running, the stored one afterwards.
func (s *Service) Get(ctx context.Context, id string) (Submission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Submission{}, ErrNotFound
	}

	s.mu.Lock()
	if r, ok := s.active[id]; ok {
		snap := r.snapshot
		s.mu.Unlock()
		return snap, nil
	}
	s.mu.Unlock()

	return s.repo.Get(ctx, id)
}

// Running reports whether the wallet currently has a submission in flight.
func (s *Service) Running(wallet string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.busy[strings.TrimSpace(wallet)]
	return id, ok
}

// Shutdown cancels in-flight submissions and waits for them to record their final state.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
