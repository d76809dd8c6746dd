// internal/application/mint/usecase.go
package mint

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"mintx/internal/domain/fee"
	reqdom "mintx/internal/domain/mintRequest"
	"mintx/internal/domain/progress"
	tokendom "mintx/internal/domain/token"
)

// 進捗率（UI のプログレスバーと揃える）
const (
	percentInit       = 0
	percentFee        = 10
	percentImage      = 20
	percentMetadata   = 40
	percentToken      = 60
	percentMint       = 70
	percentAttach     = 80
	percentRevocation = 90
	percentDone       = 100
)

// RevokeStrategy decides when a requested authority revocation happens.
type RevokeStrategy string

const (
	// 両権限とも作成時は identity、メタデータ付与後に 1 トランザクションで破棄
	RevokeDeferred RevokeStrategy = "deferred"
	// freeze 権限は作成時点で None。mint 権限は初回ミントとメタデータ署名に必要なので常に後で破棄
	RevokeEager RevokeStrategy = "eager"
)

// Config は Orchestrator の固定設定です。
type Config struct {
	FeeAddress      string
	Retry           Policy
	RetryRevocation bool
	RevokeStrategy  RevokeStrategy
}

// Report is what one submission produced, successful or not.
type Report struct {
	RequestID  string               `json:"requestId"`
	Outcome    Outcome              `json:"outcome"`
	FeePaid    fee.Lamports         `json:"feePaid"`
	Result     *tokendom.MintResult `json:"result,omitempty"`
	Signatures map[string]string    `json:"signatures,omitempty"`
}

// ============================================================
// MintUsecase（Mint Orchestrator）
// ============================================================

type MintUsecase struct {
	wallet   WalletSigner
	uploader ContentUploader
	ledger   LedgerService
	builder  *TokenMetadataBuilder

	cfg     Config
	logger  *zap.Logger
	metrics Metrics
}

// NewMintUsecase wires the three collaborators. Logger / Metrics are optional setters.
func NewMintUsecase(
	wallet WalletSigner,
	uploader ContentUploader,
	ledger LedgerService,
	cfg Config,
) *MintUsecase {
	if cfg.RevokeStrategy == "" {
		cfg.RevokeStrategy = RevokeDeferred
	}
	cfg.Retry = cfg.Retry.normalized()
	return &MintUsecase{
		wallet:   wallet,
		uploader: uploader,
		ledger:   ledger,
		builder:  NewTokenMetadataBuilder(),
		cfg:      cfg,
		logger:   zap.NewNop(),
		metrics:  nopMetrics{},
	}
}

func (u *MintUsecase) SetLogger(l *zap.Logger) {
	if u == nil || l == nil {
		return
	}
	u.logger = l.Named("mint")
}

func (u *MintUsecase) SetMetrics(m Metrics) {
	if u == nil || m == nil {
		return
	}
	u.metrics = m
}

// Quote は送信前に表示する手数料です。
func (u *MintUsecase) Quote(req reqdom.MintRequest) fee.Quote {
	return fee.NewQuote(req.RevokeMintAuthority, req.RevokeFreezeAuthority)
}

// Submit runs fee → image → metadata → mint → attach metadata → revoke, strictly in order.
// Any unrecovered failure reports "error" to sink and returns a *StepError; the Report
// still tells how far the workflow got. There is no resume: submit again to restart.
// The caller must not run two Submit calls for the same wallet concurrently.
func (u *MintUsecase) Submit(
	ctx context.Context,
	requestID string,
	req reqdom.MintRequest,
	sink progress.Sink,
) (Report, error) {
	if sink == nil {
		sink = progress.Discard
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	rep := Report{
		RequestID:  requestID,
		Outcome:    OutcomeNothingPaid,
		Signatures: map[string]string{},
	}

	if u == nil || u.wallet == nil || u.uploader == nil || u.ledger == nil {
		return rep, ErrNotConfigured
	}

	log := u.logger.With(zap.String("requestId", requestID))
	r := runner{policy: u.cfg.Retry, sink: sink, logger: log, metrics: u.metrics}

	sink.Report(progress.State{Status: progress.StatusIdle, Message: "Initializing upload...", Percent: percentInit})

	identity, ok := u.wallet.Identity()
	if !ok || strings.TrimSpace(identity) == "" {
		return u.fail(log, sink, &rep, &StepError{Kind: KindInvalidInput, Attempts: 0, Err: ErrWalletNotConnected}, "Error")
	}

	// ------------------------------------------------------------
	// 1) 手数料の支払い
	// ------------------------------------------------------------
	total := fee.Total(req.RevokeMintAuthority, req.RevokeFreezeAuthority)
	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Processing fee payment...", Percent: percentFee})

	feeSig, err := withRetry(ctx, r,
		step{name: "fee", label: "Error processing fee payment", kind: KindFeePaymentFailed, percent: percentFee},
		func(ctx context.Context) (string, error) {
			return u.ledger.Transfer(ctx, TransferInput{
				From:           identity,
				To:             u.cfg.FeeAddress,
				Amount:         total,
				IdempotencyKey: idempotencyKey(requestID, "fee"),
			})
		})
	if err != nil {
		return u.fail(log, sink, &rep, err, "")
	}
	rep.FeePaid = total
	rep.Signatures["fee"] = feeSig
	log.Info("fee paid", zap.Stringer("amount", total), zap.String("tx", maskShort(feeSig)))

	// ------------------------------------------------------------
	// 2) 画像アップロード
	// ------------------------------------------------------------
	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Uploading image...", Percent: percentImage})

	imageURI, err := withRetry(ctx, r,
		step{name: "image", label: "Error uploading image", kind: KindImageUploadFailed, percent: percentImage},
		func(ctx context.Context) (string, error) {
			uri, err := u.uploader.Upload(ctx, File{
				Name:        req.Image.FileName,
				ContentType: req.Image.ContentType,
				Data:        req.Image.Data,
			}, idempotencyKey(requestID, "image"))
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(uri) == "" {
				return "", errors.New("uploader returned no uri for image")
			}
			return uri, nil
		})
	if err != nil {
		return u.fail(log, sink, &rep, err, "")
	}

	// ------------------------------------------------------------
	// 3) メタデータ JSON 生成・アップロード
	// ------------------------------------------------------------
	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Creating metadata...", Percent: percentMetadata})

	doc, err := u.builder.Build(req, imageURI)
	if err != nil {
		return u.fail(log, sink, &rep, &StepError{Kind: KindMetadataUploadFailed, Err: err}, "Error creating metadata")
	}
	metadataURI, err := withRetry(ctx, r,
		step{name: "metadata", label: "Error uploading metadata", kind: KindMetadataUploadFailed, percent: percentMetadata},
		func(ctx context.Context) (string, error) {
			uri, err := u.uploader.UploadJSON(ctx, doc, idempotencyKey(requestID, "metadata"))
			if err != nil {
				return "", err
			}
			if strings.TrimSpace(uri) == "" {
				return "", errors.New("uploader returned no uri for metadata")
			}
			return uri, nil
		})
	if err != nil {
		return u.fail(log, sink, &rep, err, "")
	}

	// ------------------------------------------------------------
	// 4) Mint + ATA 作成 + 初回ミント（1 トランザクション）
	// ------------------------------------------------------------
	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Creating token...", Percent: percentToken})

	mintKey, err := u.ledger.NewMintKeypair()
	if err != nil {
		return u.fail(log, sink, &rep, &StepError{Kind: KindMintCreationFailed, Err: err}, "Error creating token")
	}
	holding, err := u.ledger.DeriveHoldingAccountAddress(mintKey.Address, identity)
	if err != nil {
		return u.fail(log, sink, &rep, &StepError{Kind: KindMintCreationFailed, Err: err}, "Error creating token")
	}

	mintAuthority := identity
	var freezeAuthority *string
	if !(req.RevokeFreezeAuthority && u.cfg.RevokeStrategy == RevokeEager) {
		freezeAuthority = &identity
	}

	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Creating mint and token account...", Percent: percentMint})
	mintSig, err := withRetry(ctx, r,
		step{name: "mint", label: "Error creating token", kind: KindMintCreationFailed, percent: percentMint},
		func(ctx context.Context) (string, error) {
			return u.ledger.CreateMintWithHolding(ctx, CreateMintInput{
				Mint:            mintKey,
				Owner:           identity,
				RawAmount:       req.RawAmountUint64(),
				Decimals:        req.Decimals,
				MintAuthority:   &mintAuthority,
				FreezeAuthority: freezeAuthority,
				IdempotencyKey:  idempotencyKey(requestID, "mint"),
			})
		})
	if err != nil {
		return u.fail(log, sink, &rep, err, "")
	}
	rep.Signatures["mint"] = mintSig
	log.Info("mint created", zap.String("mint", mintKey.Address), zap.String("ata", maskShort(holding)))

	// ------------------------------------------------------------
	// 5) on-chain メタデータ付与
	// ------------------------------------------------------------
	sink.Report(progress.State{Status: progress.StatusUploading, Message: "Creating token metadata...", Percent: percentAttach})
	attachSig, err := withRetry(ctx, r,
		step{name: "attach_metadata", label: "Error creating token metadata", kind: KindMetadataAttachmentFailed, percent: percentAttach},
		func(ctx context.Context) (string, error) {
			return u.ledger.AttachMetadata(ctx, AttachMetadataInput{
				Mint:                 mintKey.Address,
				Authority:            identity,
				Name:                 req.Name,
				Symbol:               req.Symbol,
				URI:                  metadataURI,
				SellerFeeBasisPoints: 0,
				Creators:             []Creator{{Address: identity, Share: 100, Verified: true}},
				IsMutable:            true,
				IdempotencyKey:       idempotencyKey(requestID, "attach_metadata"),
			})
		})
	if err != nil {
		// ミントは済んでいるので、アドレスだけは返す
		rep.Result = &tokendom.MintResult{MintAddress: mintKey.Address, TokenAccountAddress: holding}
		return u.fail(log, sink, &rep, err, "")
	}
	rep.Signatures["attach_metadata"] = attachSig
	rep.Result = &tokendom.MintResult{
		MintAddress:         mintKey.Address,
		MetadataURI:         metadataURI,
		TokenAccountAddress: holding,
	}

	// ------------------------------------------------------------
	// 6) 権限の破棄（要求時のみ）
	// ------------------------------------------------------------
	var revoke []tokendom.AuthorityType
	if req.RevokeFreezeAuthority && freezeAuthority != nil {
		revoke = append(revoke, tokendom.AuthorityFreezeAccount)
	}
	if req.RevokeMintAuthority {
		revoke = append(revoke, tokendom.AuthorityMintTokens)
	}
	if len(revoke) > 0 {
		sink.Report(progress.State{Status: progress.StatusUploading, Message: "Revoking authorities...", Percent: percentRevocation})
		in := SetAuthorityInput{
			Mint:             mintKey.Address,
			CurrentAuthority: identity,
			Revoke:           revoke,
			IdempotencyKey:   idempotencyKey(requestID, "revoke"),
		}
		var revokeSig string
		if u.cfg.RetryRevocation {
			revokeSig, err = withRetry(ctx, r,
				step{name: "revoke", label: "Error revoking authorities", kind: KindAuthorityRevocationFailed, percent: percentRevocation},
				func(ctx context.Context) (string, error) { return u.ledger.SetAuthority(ctx, in) })
		} else {
			revokeSig, err = u.ledger.SetAuthority(ctx, in)
			u.metrics.ObserveAttempt("revoke", err == nil)
			if err != nil {
				err = &StepError{Kind: KindAuthorityRevocationFailed, Attempts: 1, Err: err}
			}
		}
		if err != nil {
			return u.fail(log, sink, &rep, err, "Error revoking authorities")
		}
		rep.Signatures["revoke"] = revokeSig
	}

	rep.Outcome = OutcomeCompleted
	u.metrics.ObserveOutcome(rep.Outcome)
	sink.Report(progress.State{Status: progress.StatusDone, Message: "Token created and minted successfully!", Percent: percentDone})
	log.Info("submission completed",
		zap.String("mint", rep.Result.MintAddress),
		zap.String("metadataUri", rep.Result.MetadataURI),
	)
	return rep, nil
}

// fail は saga 上の到達点を記録し、まだ出していなければ error 進捗を出します。
func (u *MintUsecase) fail(log *zap.Logger, sink progress.Sink, rep *Report, err error, label string) (Report, error) {
	var se *StepError
	if !errors.As(err, &se) {
		se = &StepError{Kind: KindInvalidInput, Err: err}
		err = se
	}
	rep.Outcome = outcomeFor(se.Kind)
	if rep.Outcome == OutcomeNothingPaid && rep.FeePaid > 0 {
		rep.Outcome = OutcomeFeePaidNothingMinted
	}

	if !se.reported {
		msg := "Error: " + se.Err.Error()
		if label != "" {
			msg = fmt.Sprintf("%s: %v", label, se.Err)
		}
		sink.Report(progress.State{Status: progress.StatusError, Message: msg, Percent: 0})
		se.reported = true
	}

	u.metrics.ObserveOutcome(rep.Outcome)
	log.Error("submission failed",
		zap.String("kind", string(se.Kind)),
		zap.Int("attempts", se.Attempts),
		zap.String("outcome", string(rep.Outcome)),
		zap.Error(se.Err),
	)
	return *rep, err
}

// idempotencyKey = "<requestID>:<step>"
func idempotencyKey(requestID, stepName string) string {
	return requestID + ":" + stepName
}

func maskShort(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
