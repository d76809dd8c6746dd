// internal/application/submission/entity.go
package submission

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"

	mintapp "mintx/internal/application/mint"
	"mintx/internal/domain/fee"
	"mintx/internal/domain/progress"
	tokendom "mintx/internal/domain/token"
)

var (
	ErrNotFound = errors.New("submission: not found")
	// 同じウォレットで実行中の送信がある
	ErrBusy = errors.New("submission: a submission is already running for this wallet")
)

// Submission は 1 回の送信の保存用スナップショットです。
type Submission struct {
	ID         string               `json:"id"`
	Wallet     string               `json:"wallet"`
	Name       string               `json:"name"`
	Symbol     string               `json:"symbol"`
	Progress   progress.State       `json:"progress"`
	Outcome    mintapp.Outcome      `json:"outcome,omitempty"`
	FeePaid    fee.Lamports         `json:"feePaid"`
	Result     *tokendom.MintResult `json:"result,omitempty"`
	Signatures map[string]string    `json:"signatures,omitempty"`
	ErrorKind  string               `json:"errorKind,omitempty"`
	Error      string               `json:"error,omitempty"`
	CreatedAt  time.Time            `json:"createdAt"`
	UpdatedAt  time.Time            `json:"updatedAt"`
}

// Finished は done / error に到達済みなら true。
func (s Submission) Finished() bool {
	return s.Progress.Status.IsTerminal()
}

// Repository persists submissions. Save is an upsert keyed by ID.
type Repository interface {
	Save(ctx context.Context, s Submission) error
	Get(ctx context.Context, id string) (Submission, error)
}
