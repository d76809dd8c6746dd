// internal/infra/solana/signer.go
package solana

import (
	"github.com/blocto/solana-go-sdk/types"

	mintapp "mintx/internal/application/mint"
)

// Signer はサーバが保持する唯一の署名ウォレットです。
// 鍵が読めなかった場合は nil のまま渡し、Identity は未接続を返します。
type Signer struct {
	account *types.Account
}

var _ mintapp.WalletSigner = (*Signer)(nil)

func NewSigner(acc types.Account) *Signer {
	return &Signer{account: &acc}
}

// Identity returns the base58 public key, or false when no key is loaded.
func (s *Signer) Identity() (string, bool) {
	if s == nil || s.account == nil {
		return "", false
	}
	return s.account.PublicKey.ToBase58(), true
}

// Account は署名に使う鍵ペアです。
func (s *Signer) Account() (types.Account, bool) {
	if s == nil || s.account == nil {
		return types.Account{}, false
	}
	return *s.account, true
}
