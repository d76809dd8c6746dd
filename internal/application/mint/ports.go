// internal/application/mint/ports.go
package mint

import (
	"context"

	"mintx/internal/domain/fee"
	tokendom "mintx/internal/domain/token"
)

// ============================================================
// Wallet Signer
// ============================================================

// WalletSigner は送信者ウォレットです。未接続なら Identity は false を返します。
// 署名自体は LedgerService の実装が保持する signer が行います。
type WalletSigner interface {
	Identity() (address string, ok bool)
}

// ============================================================
// Content Uploader
// ============================================================

// File はアップロードするバイナリです。
type File struct {
	Name        string
	ContentType string
	Data        []byte
}

// ContentUploader は画像・メタデータ JSON を保存して URI を返します。
// 同じ idempotencyKey での再送は、実装側が可能なら重複排除します。
type ContentUploader interface {
	Upload(ctx context.Context, file File, idempotencyKey string) (string, error)
	UploadJSON(ctx context.Context, document []byte, idempotencyKey string) (string, error)
}

// ============================================================
// Token Ledger Service
// ============================================================

// MintKeypair is a freshly generated mint identity. PrivateKey is the 64-byte ed25519 key.
type MintKeypair struct {
	Address    string
	PrivateKey []byte
}

type TransferInput struct {
	From           string
	To             string
	Amount         fee.Lamports
	IdempotencyKey string
}

// CreateMintInput: nil authority = "none".
type CreateMintInput struct {
	Mint            MintKeypair
	Owner           string
	RawAmount       uint64
	Decimals        uint8
	MintAuthority   *string
	FreezeAuthority *string
	IdempotencyKey  string
}

type Creator struct {
	Address  string
	Share    uint8
	Verified bool
}

type AttachMetadataInput struct {
	Mint                 string
	Authority            string
	Name                 string
	Symbol               string
	URI                  string
	SellerFeeBasisPoints uint16
	Creators             []Creator
	IsMutable            bool
	IdempotencyKey       string
}

type SetAuthorityInput struct {
	Mint             string
	CurrentAuthority string
	// 1 トランザクションにまとめて None に設定する権限
	Revoke         []tokendom.AuthorityType
	IdempotencyKey string
}

// LedgerService is the on-chain side of the workflow. Each call is atomic and
// returns once the transaction is confirmed; the sequence of calls is not.
type LedgerService interface {
	NewMintKeypair() (MintKeypair, error)
	Transfer(ctx context.Context, in TransferInput) (string, error)
	CreateMintWithHolding(ctx context.Context, in CreateMintInput) (string, error)
	AttachMetadata(ctx context.Context, in AttachMetadataInput) (string, error)
	DeriveHoldingAccountAddress(mint, owner string) (string, error)
	SetAuthority(ctx context.Context, in SetAuthorityInput) (string, error)
}
