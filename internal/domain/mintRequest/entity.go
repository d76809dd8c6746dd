// internal/domain/mintRequest/entity.go
package mintRequest

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// 画像サイズ上限（5 MiB）
const MaxImageBytes = 5 * 1024 * 1024

// Metaplex の on-chain 上限（バイト数）
const (
	MaxNameBytes   = 32
	MaxSymbolBytes = 10
	MaxDecimals    = 9
)

// DefaultDecimals はフォームで未入力だったときの値。
const DefaultDecimals = "9"

// Image はアップロード対象の画像バイナリです。
type Image struct {
	Data        []byte
	ContentType string // MIME
	FileName    string
}

func (i Image) Size() int { return len(i.Data) }

// SocialLinks mirrors the optional "socials" block of the token metadata.
type SocialLinks struct {
	Website  string `json:"website"`
	Twitter  string `json:"twitter"`
	Telegram string `json:"telegram"`
	Discord  string `json:"discord"`
}

// Draft はフォームから届いた未検証の入力です。数値は文字列のまま受け取ります。
type Draft struct {
	Name          string
	Symbol        string
	Decimals      string
	InitialSupply string
	Image         Image
	Description   string

	IncludeSocials bool
	Socials        SocialLinks

	RevokeMintAuthority   bool
	RevokeFreezeAuthority bool
}

// MintRequest is the validated, normalized request for one submission.
// Build it with Validate; it is not modified afterwards.
type MintRequest struct {
	Name          string
	Symbol        string
	Decimals      uint8
	InitialSupply decimal.Decimal
	Image         Image
	Description   string

	// nil unless the user opted in
	Socials *SocialLinks

	RevokeMintAuthority   bool
	RevokeFreezeAuthority bool

	rawAmount *big.Int
}

// RawAmount = InitialSupply × 10^Decimals (base units). Returns a fresh copy.
func (r MintRequest) RawAmount() *big.Int {
	if r.rawAmount == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(r.rawAmount)
}

// RawAmountUint64 は on-chain の u64 表現です。Validate 済みなら必ず収まります。
func (r MintRequest) RawAmountUint64() uint64 {
	if r.rawAmount == nil {
		return 0
	}
	return r.rawAmount.Uint64()
}

// RevokesAny は少なくとも一方の権限を破棄するなら true。
func (r MintRequest) RevokesAny() bool {
	return r.RevokeMintAuthority || r.RevokeFreezeAuthority
}
