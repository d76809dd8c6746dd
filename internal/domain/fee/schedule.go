// internal/domain/fee/schedule.go
package fee

import (
	"github.com/shopspring/decimal"
)

// Lamports は SOL の最小単位です（1 SOL = 1_000_000_000 lamports）。
type Lamports uint64

const LamportsPerSOL Lamports = 1_000_000_000

// 手数料はビルド時固定（環境変数では変えない）。
const (
	BaseFee                  Lamports = 20_000_000 // 0.02 SOL
	MintAuthoritySurcharge   Lamports = 1_000_000  // 0.001 SOL
	FreezeAuthoritySurcharge Lamports = 1_000_000  // 0.001 SOL
)

// SOL は lamports を誤差なしの SOL 表記に変換します。
func (l Lamports) SOL() decimal.Decimal {
	return decimal.NewFromInt(int64(l)).Shift(-9)
}

func (l Lamports) String() string {
	return l.SOL().String() + " SOL"
}

// Quote は手数料の内訳です。
type Quote struct {
	Base            Lamports `json:"base"`
	MintSurcharge   Lamports `json:"mintAuthoritySurcharge"`
	FreezeSurcharge Lamports `json:"freezeAuthoritySurcharge"`
	Total           Lamports `json:"total"`
}

// Total = base + (mint revoke ? surcharge : 0) + (freeze revoke ? surcharge : 0)
func Total(revokeMint, revokeFreeze bool) Lamports {
	return NewQuote(revokeMint, revokeFreeze).Total
}

func NewQuote(revokeMint, revokeFreeze bool) Quote {
	q := Quote{Base: BaseFee}
	if revokeMint {
		q.MintSurcharge = MintAuthoritySurcharge
	}
	if revokeFreeze {
		q.FreezeSurcharge = FreezeAuthoritySurcharge
	}
	q.Total = q.Base + q.MintSurcharge + q.FreezeSurcharge
	return q
}
