// internal/application/mint/errors.go
package mint

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// ErrorKind identifies the step that failed. Supports errors.Is against a kind.
type ErrorKind string

const (
	KindInvalidInput              = ErrorKind("InvalidInput")
	KindFeePaymentFailed          = ErrorKind("FeePaymentFailed")
	KindImageUploadFailed         = ErrorKind("ImageUploadFailed")
	KindMetadataUploadFailed      = ErrorKind("MetadataUploadFailed")
	KindMintCreationFailed        = ErrorKind("MintCreationFailed")
	KindMetadataAttachmentFailed  = ErrorKind("MetadataAttachmentFailed")
	KindAuthorityRevocationFailed = ErrorKind("AuthorityRevocationFailed")
)

func (k ErrorKind) Error() string {
	return string(k)
}

var (
	ErrWalletNotConnected = errors.New("mint: wallet not connected")
	ErrNotConfigured      = errors.New("mint: usecase is not properly initialized")
)

// StepError は 1 ステップの最終的な失敗です（リトライ後）。
type StepError struct {
	Kind     ErrorKind
	Attempts int
	Err      error

	// retry wrapper が error 進捗を既に出したか
	reported bool
}

func (e *StepError) Error() string {
	if e.Attempts > 1 {
		return fmt.Sprintf("%s after %d attempts: %v", e.Kind, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func (e *StepError) Is(target error) bool {
	k, ok := target.(ErrorKind)
	return ok && k == e.Kind
}

// KindOf returns the failed step kind, or "" when err is not a StepError.
func KindOf(err error) ErrorKind {
	var se *StepError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// Outcome は送信結果の saga 上の位置です。
// 「手数料だけ払った」「ミント済みだが権限が残った」を区別するためのもの。
type Outcome string

const (
	OutcomeNothingPaid             Outcome = "nothing_paid"
	OutcomeFeePaidNothingMinted    Outcome = "fee_paid_nothing_minted"
	OutcomeMintedWithoutMetadata   Outcome = "minted_without_metadata"
	OutcomeMintedAuthoritiesIntact Outcome = "minted_authorities_intact"
	OutcomeCompleted               Outcome = "completed"
)

// outcomeFor maps the failing step to how far the saga got.
func outcomeFor(kind ErrorKind) Outcome {
	switch kind {
	case KindImageUploadFailed, KindMetadataUploadFailed, KindMintCreationFailed:
		return OutcomeFeePaidNothingMinted
	case KindMetadataAttachmentFailed:
		return OutcomeMintedWithoutMetadata
	case KindAuthorityRevocationFailed:
		return OutcomeMintedAuthoritiesIntact
	default:
		return OutcomeNothingPaid
	}
}
