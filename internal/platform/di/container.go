// internal/platform/di/container.go
package di

import (
	"context"
	"time"

	"cloud.google.com/go/storage"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	httpin "mintx/internal/adapters/in/http"
	"mintx/internal/adapters/in/http/handlers"
	fsrepo "mintx/internal/adapters/out/firestore"
	memrepo "mintx/internal/adapters/out/memory"
	pgrepo "mintx/internal/adapters/out/postgres"
	mintapp "mintx/internal/application/mint"
	"mintx/internal/application/submission"
	"mintx/internal/infra/arweave"
	"mintx/internal/infra/config"
	"mintx/internal/infra/database"
	firestoreinfra "mintx/internal/infra/firestore"
	"mintx/internal/infra/gcs"
	"mintx/internal/infra/metrics"
	"mintx/internal/infra/solana"
)

// Container は main.go から使う依存オブジェクトの束です。
// main.go を薄く保つため、組み立てと後始末をここに集めます。
type Container struct {
	Config  *config.Config
	Logger  *zap.Logger
	Metrics *metrics.Metrics

	Signer      *solana.Signer
	Ledger      *solana.Ledger
	Uploader    mintapp.ContentUploader
	Usecase     *mintapp.MintUsecase
	Submissions *submission.Service

	closers []func() error
}

// NewContainer は設定に従って全依存を組み立てます。
// 署名鍵が読めなくても起動は続け、送信時に wallet not connected を返します。
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("di: config is nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	log := logger.Named("di")

	c := &Container{Config: cfg, Logger: logger, Metrics: metrics.New()}

	// 1. Signer + Ledger
	c.Signer = loadSigner(ctx, cfg, log)
	c.Ledger = solana.NewLedger(cfg.SolanaRPCURL, c.Signer,
		solana.WithConfirmation(cfg.ConfirmTimeout, time.Second),
		solana.WithLogger(logger),
	)

	// 2. Uploader
	up, err := c.buildUploader(ctx)
	if err != nil {
		c.closeAll()
		return nil, err
	}
	c.Uploader = up

	// 3. Submission repository
	repo, err := c.buildRepository(ctx)
	if err != nil {
		c.closeAll()
		return nil, err
	}

	// 4. Usecase + submission runner
	policy := mintapp.DefaultPolicy()
	policy.MaxAttempts = cfg.RetryMaxAttempts

	c.Usecase = mintapp.NewMintUsecase(c.Signer, c.Uploader, c.Ledger, mintapp.Config{
		FeeAddress:      cfg.FeeAddress,
		Retry:           policy,
		RetryRevocation: cfg.RetryRevocation,
		RevokeStrategy:  mintapp.RevokeStrategy(cfg.RevokeStrategy),
	})
	c.Usecase.SetLogger(logger)
	c.Usecase.SetMetrics(c.Metrics)

	c.Submissions = submission.NewService(c.Usecase, c.Signer, repo)
	c.Submissions.SetLogger(logger)
	c.Submissions.SetTracker(c.Metrics)

	log.Info("container ready",
		zap.String("uploader", cfg.Uploader),
		zap.String("store", cfg.SubmissionStore),
		zap.String("revoke_strategy", cfg.RevokeStrategy),
		zap.Bool("signer", c.Signer != nil),
	)
	return c, nil
}

// RouterDeps は HTTP router 用の依存をまとめます。
func (c *Container) RouterDeps() httpin.RouterDeps {
	return httpin.RouterDeps{
		Mint:          handlers.NewMintHandler(c.Submissions, c.Logger),
		Wallet:        handlers.NewWalletHandler(c.Signer, c.Submissions),
		Logger:        c.Logger,
		AllowedOrigin: c.Config.CORSAllowedOrigin,
	}
}

// Close は実行中の送信を止めてから外部接続を閉じます。
func (c *Container) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	var errs error
	if c.Submissions != nil {
		if err := c.Submissions.Shutdown(ctx); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	return errors.CombineErrors(errs, c.closeAll())
}

func (c *Container) closeAll() error {
	var errs error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil {
			errs = errors.CombineErrors(errs, err)
		}
	}
	c.closers = nil
	return errs
}

func loadSigner(ctx context.Context, cfg *config.Config, log *zap.Logger) *solana.Signer {
	if !cfg.HasSigner() {
		log.Warn("no signer keypair configured; submissions will be rejected")
		return nil
	}
	kctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	acc, err := solana.LoadKeypair(kctx, solana.KeySource{
		JSON:       cfg.KeypairJSON,
		Path:       cfg.KeypairPath,
		SecretName: cfg.MintKeySecret,
	})
	if err != nil {
		log.Warn("signer keypair unavailable; submissions will be rejected", zap.Error(err))
		return nil
	}
	s := solana.NewSigner(acc)
	id, _ := s.Identity()
	log.Info("signer loaded", zap.String("address", id))
	return s
}

func (c *Container) buildUploader(ctx context.Context) (mintapp.ContentUploader, error) {
	cfg := c.Config
	switch cfg.Uploader {
	case config.UploaderGCS:
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "di: storage client")
		}
		c.closers = append(c.closers, client.Close)
		return gcs.NewUploader(client, cfg.GCSBucket, c.Logger), nil
	default:
		return arweave.NewHTTPUploader(cfg.ArweaveBaseURL, cfg.ArweaveAPIKey, c.Logger), nil
	}
}

func (c *Container) buildRepository(ctx context.Context) (submission.Repository, error) {
	cfg := c.Config
	switch cfg.SubmissionStore {
	case config.StoreFirestore:
		fs, err := firestoreinfra.NewClient(ctx, cfg.FirestoreProjectID, cfg.FirestoreCredentialsFile, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, fs.Close)
		return fsrepo.NewSubmissionRepositoryFS(fs.Client), nil

	case config.StorePostgres:
		db, err := database.NewConnection(ctx, cfg.DatabaseURL, c.Logger)
		if err != nil {
			return nil, err
		}
		c.closers = append(c.closers, db.Close)
		repo := pgrepo.NewSubmissionRepositoryPG(db.Client)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil

	default:
		return memrepo.NewSubmissionRepository(), nil
	}
}
