// internal/infra/solana/ledger.go
package solana

import (
	"context"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/program/metaplex/token_metadata"
	"github.com/blocto/solana-go-sdk/program/token"
	"github.com/blocto/solana-go-sdk/types"
	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
	"github.com/samber/lo"
	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	mintapp "mintx/internal/application/mint"
	tokendom "mintx/internal/domain/token"
)

var (
	ErrLedgerNotConfigured = errors.New("solana: ledger not configured (missing signer)")
	ErrSignerMismatch      = errors.New("solana: requested authority is not the loaded signer")
	ErrMintKeyMismatch     = errors.New("solana: mint keypair does not match its address")
	ErrInsufficientFunds   = errors.New("solana: insufficient funds")
	ErrNotConfirmed        = errors.New("solana: transaction not confirmed in time")
)

// 送金時に残しておく手数料分の目安（lamports）
const txFeeReserve = 10_000

// Ledger は LedgerService の Solana 実装です。
// 全トランザクションの fee payer / 署名者は Signer の鍵です。
type Ledger struct {
	chain  chain
	signer *Signer
	cache  *txCache
	logger *zap.Logger

	confirmTimeout time.Duration
	pollInterval   time.Duration
}

var _ mintapp.LedgerService = (*Ledger)(nil)

type Option func(*Ledger)

// WithConfirmation は確認待ちの上限とポーリング間隔を変えます。
func WithConfirmation(timeout, interval time.Duration) Option {
	return func(l *Ledger) {
		if timeout > 0 {
			l.confirmTimeout = timeout
		}
		if interval > 0 {
			l.pollInterval = interval
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger.Named("solana")
		}
	}
}

func NewLedger(rpcURL string, signer *Signer, opts ...Option) *Ledger {
	return newLedger(newRPCChain(rpcURL), signer, opts...)
}

func newLedger(c chain, signer *Signer, opts ...Option) *Ledger {
	l := &Ledger{
		chain:          c,
		signer:         signer,
		cache:          newTxCache(30 * time.Minute),
		logger:         zap.NewNop(),
		confirmTimeout: 60 * time.Second,
		pollInterval:   time.Second,
	}
	for _, o := range opts {
		o(l)
	}
	return l
}

// ------------------------------------------------------------
// LedgerService
// ------------------------------------------------------------

func (l *Ledger) NewMintKeypair() (mintapp.MintKeypair, error) {
	acc := types.NewAccount()
	return mintapp.MintKeypair{
		Address:    acc.PublicKey.ToBase58(),
		PrivateKey: []byte(acc.PrivateKey),
	}, nil
}

func (l *Ledger) DeriveHoldingAccountAddress(mint, owner string) (string, error) {
	mintPK, err := parseKey("mint", mint)
	if err != nil {
		return "", err
	}
	ownerPK, err := parseKey("owner", owner)
	if err != nil {
		return "", err
	}
	ata, _, err := common.FindAssociatedTokenAddress(ownerPK, mintPK)
	if err != nil {
		return "", errors.Wrap(err, "solana: FindAssociatedTokenAddress")
	}
	return ata.ToBase58(), nil
}

// Transfer は SOL を送金します。key があれば memo に残します。
func (l *Ledger) Transfer(ctx context.Context, in mintapp.TransferInput) (string, error) {
	payer, err := l.payerFor(in.From)
	if err != nil {
		return "", err
	}
	to, err := parseKey("fee address", in.To)
	if err != nil {
		return "", err
	}
	if in.Amount == 0 {
		return "", errors.New("solana: transfer amount is zero")
	}

	// 同じ key が既に確認済みなら残高チェック不要
	if prev, ok := l.cache.get(in.IdempotencyKey); !ok || !prev.confirmed {
		bal, err := l.chain.Balance(ctx, payer.PublicKey.ToBase58())
		if err != nil {
			return "", err
		}
		if bal < uint64(in.Amount)+txFeeReserve {
			return "", errors.Wrapf(ErrInsufficientFunds, "balance=%d need=%d", bal, uint64(in.Amount)+txFeeReserve)
		}
	}

	return l.submit(ctx, "transfer", in.IdempotencyKey, func(ctx context.Context, blockhash string) (types.Transaction, error) {
		return buildTx(blockhash, payer, feeTransferIxs(payer.PublicKey, to, uint64(in.Amount), in.IdempotencyKey))
	})
}

func (l *Ledger) CreateMintWithHolding(ctx context.Context, in mintapp.CreateMintInput) (string, error) {
	payer, err := l.payerFor("")
	if err != nil {
		return "", err
	}
	mintAcc, err := types.AccountFromBytes(in.Mint.PrivateKey)
	if err != nil {
		return "", errors.Wrap(err, "solana: mint keypair")
	}
	if mintAcc.PublicKey.ToBase58() != strings.TrimSpace(in.Mint.Address) {
		return "", ErrMintKeyMismatch
	}
	owner, err := parseKey("owner", in.Owner)
	if err != nil {
		return "", err
	}
	if in.MintAuthority == nil {
		return "", errors.New("solana: mint authority is required for the initial mint")
	}
	if *in.MintAuthority != payer.PublicKey.ToBase58() {
		return "", errors.Wrap(ErrSignerMismatch, "mint authority")
	}
	var freeze *common.PublicKey
	if in.FreezeAuthority != nil {
		pk, err := parseKey("freeze authority", *in.FreezeAuthority)
		if err != nil {
			return "", err
		}
		freeze = &pk
	}

	ata, _, err := common.FindAssociatedTokenAddress(owner, mintAcc.PublicKey)
	if err != nil {
		return "", errors.Wrap(err, "solana: FindAssociatedTokenAddress")
	}

	return l.submit(ctx, "create_mint", in.IdempotencyKey, func(ctx context.Context, blockhash string) (types.Transaction, error) {
		rent, err := l.chain.RentExemption(ctx, token.MintAccountSize)
		if err != nil {
			return types.Transaction{}, err
		}
		ins := createMintIxs(mintIxParams{
			Payer:           payer.PublicKey,
			Mint:            mintAcc.PublicKey,
			Owner:           owner,
			HoldingAccount:  ata,
			Rent:            rent,
			Decimals:        in.Decimals,
			Amount:          in.RawAmount,
			MintAuthority:   payer.PublicKey,
			FreezeAuthority: freeze,
		})
		return buildTx(blockhash, payer, ins, mintAcc)
	})
}

func (l *Ledger) AttachMetadata(ctx context.Context, in mintapp.AttachMetadataInput) (string, error) {
	payer, err := l.payerFor(in.Authority)
	if err != nil {
		return "", err
	}
	mint, err := parseKey("mint", in.Mint)
	if err != nil {
		return "", err
	}

	creators := make([]token_metadata.Creator, 0, len(in.Creators))
	for _, c := range in.Creators {
		pk, err := parseKey("creator", c.Address)
		if err != nil {
			return "", err
		}
		creators = append(creators, token_metadata.Creator{Address: pk, Verified: c.Verified, Share: c.Share})
	}

	ix, err := createMetadataIx(metadataIxParams{
		Mint:                 mint,
		Authority:            payer.PublicKey,
		Payer:                payer.PublicKey,
		Name:                 in.Name,
		Symbol:               in.Symbol,
		URI:                  in.URI,
		SellerFeeBasisPoints: in.SellerFeeBasisPoints,
		Creators:             creators,
		IsMutable:            in.IsMutable,
	})
	if err != nil {
		return "", errors.Wrap(err, "solana: metadata instruction")
	}

	return l.submit(ctx, "attach_metadata", in.IdempotencyKey, func(ctx context.Context, blockhash string) (types.Transaction, error) {
		return buildTx(blockhash, payer, []types.Instruction{ix})
	})
}

func (l *Ledger) SetAuthority(ctx context.Context, in mintapp.SetAuthorityInput) (string, error) {
	payer, err := l.payerFor(in.CurrentAuthority)
	if err != nil {
		return "", err
	}
	mint, err := parseKey("mint", in.Mint)
	if err != nil {
		return "", err
	}
	ins, err := revokeIxs(mint, payer.PublicKey, in.Revoke)
	if err != nil {
		return "", errors.Wrap(err, "solana: set authority")
	}

	kinds := lo.Map(in.Revoke, func(k tokendom.AuthorityType, _ int) string { return string(k) })
	l.logger.Info("revoking authorities", zap.String("mint", mask(in.Mint)), zap.Strings("kinds", kinds))

	return l.submit(ctx, "set_authority", in.IdempotencyKey, func(ctx context.Context, blockhash string) (types.Transaction, error) {
		return buildTx(blockhash, payer, ins)
	})
}

// ------------------------------------------------------------
// send / confirm
// ------------------------------------------------------------

type txBuilder func(ctx context.Context, blockhash string) (types.Transaction, error)

// submit は key ごとに「同じ署名済み tx の再送」を保証して送信し、確認まで待ちます。
func (l *Ledger) submit(ctx context.Context, op, key string, build txBuilder) (string, error) {
	log := l.logger.With(zap.String("op", op), zap.String("key", key))

	if prev, ok := l.cache.get(key); ok {
		if prev.confirmed {
			log.Info("already confirmed", zap.String("tx", mask(prev.signature)))
			return prev.signature, nil
		}
		st, err := l.chain.Status(ctx, prev.signature)
		switch {
		case err != nil:
			log.Warn("status check failed; resending", zap.Error(err))
		case st.State == txConfirmed:
			l.cache.markConfirmed(key)
			log.Info("previous attempt landed", zap.String("tx", mask(prev.signature)))
			return prev.signature, nil
		case st.State == txFailed:
			// 失敗した tx は何も書き込んでいないので作り直してよい
			l.cache.drop(key)
			log.Warn("previous attempt failed on chain; rebuilding", zap.String("err", st.Err))
			return l.sendNew(ctx, log, key, build)
		}

		if _, err := l.chain.Send(ctx, prev.tx); err != nil {
			if isBlockhashExpired(err) {
				l.cache.drop(key)
				log.Info("blockhash expired; rebuilding")
				return l.sendNew(ctx, log, key, build)
			}
			return "", errors.Wrapf(err, "solana: %s resend", op)
		}
		return l.confirm(ctx, log, key, prev.signature)
	}

	return l.sendNew(ctx, log, key, build)
}

func (l *Ledger) sendNew(ctx context.Context, log *zap.Logger, key string, build txBuilder) (string, error) {
	blockhash, err := l.chain.LatestBlockhash(ctx)
	if err != nil {
		return "", err
	}
	tx, err := build(ctx, blockhash)
	if err != nil {
		return "", err
	}
	if len(tx.Signatures) == 0 {
		return "", errors.New("solana: built transaction has no signature")
	}
	sig := base58.Encode(tx.Signatures[0])

	// 送信前に保存しておく（送信結果が分からなくても次回は同じ tx を再送できる）
	l.cache.put(key, tx, sig)

	if _, err := l.chain.Send(ctx, tx); err != nil {
		if isBlockhashExpired(err) {
			l.cache.drop(key)
		}
		log.Warn("send failed", zap.Error(err))
		return "", errors.Wrap(err, "solana: send")
	}
	log.Info("sent", zap.String("tx", mask(sig)))
	return l.confirm(ctx, log, key, sig)
}

func (l *Ledger) confirm(ctx context.Context, log *zap.Logger, key, sig string) (string, error) {
	b := retry.WithMaxDuration(l.confirmTimeout, retry.NewConstant(l.pollInterval))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		st, err := l.chain.Status(ctx, sig)
		if err != nil {
			return retry.RetryableError(err)
		}
		switch st.State {
		case txConfirmed:
			return nil
		case txFailed:
			return errors.Newf("solana: transaction %s failed: %s", sig, st.Err)
		default:
			return retry.RetryableError(ErrNotConfirmed)
		}
	})
	if err != nil {
		if !errors.Is(err, ErrNotConfirmed) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			l.cache.drop(key)
		}
		log.Warn("confirmation failed", zap.String("tx", mask(sig)), zap.Error(err))
		return "", err
	}
	l.cache.markConfirmed(key)
	log.Info("confirmed", zap.String("tx", mask(sig)))
	return sig, nil
}

// ------------------------------------------------------------
// helpers
// ------------------------------------------------------------

// payerFor は署名者を返します。want が空でなければ署名者と一致することを確認します。
func (l *Ledger) payerFor(want string) (types.Account, error) {
	acc, ok := l.signer.Account()
	if !ok {
		return types.Account{}, ErrLedgerNotConfigured
	}
	want = strings.TrimSpace(want)
	if want != "" && want != acc.PublicKey.ToBase58() {
		return types.Account{}, errors.Wrapf(ErrSignerMismatch, "want=%s", mask(want))
	}
	return acc, nil
}

func buildTx(blockhash string, payer types.Account, ins []types.Instruction, extra ...types.Account) (types.Transaction, error) {
	tx, err := types.NewTransaction(types.NewTransactionParam{
		Signers: append([]types.Account{payer}, extra...),
		Message: types.NewMessage(types.NewMessageParam{
			FeePayer:        payer.PublicKey,
			RecentBlockhash: blockhash,
			Instructions:    ins,
		}),
	})
	if err != nil {
		return types.Transaction{}, errors.Wrap(err, "solana: NewTransaction")
	}
	return tx, nil
}

func parseKey(field, s string) (common.PublicKey, error) {
	s = strings.TrimSpace(s)
	if err := tokendom.ValidateAddress(s); err != nil {
		return common.PublicKey{}, errors.Wrapf(err, "solana: %s", field)
	}
	return common.PublicKeyFromString(s), nil
}

func mask(s string) string {
	t := strings.TrimSpace(s)
	if len(t) <= 10 {
		return t
	}
	return t[:4] + "***" + t[len(t)-4:]
}
