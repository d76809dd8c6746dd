// internal/domain/token/entity.go
package token

import (
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/mr-tron/base58"
)

// MintResult はミント成功時の最終成果物です。生成後は変更しません。
type MintResult struct {
	MintAddress         string `json:"mintAddress"`
	MetadataURI         string `json:"metadataUri"`
	TokenAccountAddress string `json:"tokenAccountAddress"`
}

// AuthorityType は破棄対象の権限種別です。
type AuthorityType string

const (
	AuthorityMintTokens    AuthorityType = "mintTokens"
	AuthorityFreezeAccount AuthorityType = "freezeAccount"
)

// Errors
var (
	ErrInvalidAddress = errors.New("token: invalid address")
)

// Solana pubkey は 32 バイト。
const PublicKeyLength = 32

// ValidateAddress は base58 の 32 バイト公開鍵かどうかを確認します。
func ValidateAddress(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return errors.Wrap(ErrInvalidAddress, "empty")
	}
	b, err := base58.Decode(s)
	if err != nil {
		return errors.Wrapf(ErrInvalidAddress, "%q is not base58", s)
	}
	if len(b) != PublicKeyLength {
		return errors.Wrapf(ErrInvalidAddress, "%q decodes to %d bytes, want %d", s, len(b), PublicKeyLength)
	}
	return nil
}

// IsValidAddress is the boolean form of ValidateAddress.
func IsValidAddress(s string) bool {
	return ValidateAddress(s) == nil
}
