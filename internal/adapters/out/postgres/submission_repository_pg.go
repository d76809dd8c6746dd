// internal/adapters/out/postgres/submission_repository_pg.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"

	mintapp "mintx/internal/application/mint"
	"mintx/internal/application/submission"
	"mintx/internal/domain/fee"
	tokendom "mintx/internal/domain/token"
)

var _ submission.Repository = (*SubmissionRepositoryPG)(nil)

type SubmissionRepositoryPG struct {
	DB *sql.DB
}

func NewSubmissionRepositoryPG(db *sql.DB) *SubmissionRepositoryPG {
	return &SubmissionRepositoryPG{DB: db}
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS mint_submissions (
  id               TEXT PRIMARY KEY,
  wallet           TEXT NOT NULL,
  name             TEXT NOT NULL,
  symbol           TEXT NOT NULL,
  progress         JSONB NOT NULL,
  outcome          TEXT NOT NULL DEFAULT '',
  fee_paid         BIGINT NOT NULL DEFAULT 0,
  result           JSONB,
  signatures       JSONB NOT NULL DEFAULT '{}'::jsonb,
  error_kind       TEXT NOT NULL DEFAULT '',
  error            TEXT NOT NULL DEFAULT '',
  created_at       TIMESTAMPTZ NOT NULL,
  updated_at       TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS mint_submissions_wallet_idx ON mint_submissions (wallet, created_at DESC)`

// EnsureSchema は起動時に一度だけ呼びます。
func (r *SubmissionRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, schemaDDL); err != nil {
		return errors.Wrap(err, "postgres: ensure mint_submissions schema")
	}
	return nil
}

// ========================================
// submission.Repository implementation
// ========================================

func (r *SubmissionRepositoryPG) Save(ctx context.Context, s submission.Submission) error {
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return errors.New("postgres: submission id is empty")
	}

	progressJSON, err := json.Marshal(s.Progress)
	if err != nil {
		return errors.Wrap(err, "postgres: encode progress")
	}
	var resultJSON []byte
	if s.Result != nil {
		if resultJSON, err = json.Marshal(s.Result); err != nil {
			return errors.Wrap(err, "postgres: encode result")
		}
	}
	sigs := s.Signatures
	if sigs == nil {
		sigs = map[string]string{}
	}
	sigJSON, err := json.Marshal(sigs)
	if err != nil {
		return errors.Wrap(err, "postgres: encode signatures")
	}

	const q = `
INSERT INTO mint_submissions (
  id, wallet, name, symbol, progress, outcome, fee_paid, result, signatures,
  error_kind, error, created_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
ON CONFLICT (id) DO UPDATE SET
  progress   = EXCLUDED.progress,
  outcome    = EXCLUDED.outcome,
  fee_paid   = EXCLUDED.fee_paid,
  result     = EXCLUDED.result,
  signatures = EXCLUDED.signatures,
  error_kind = EXCLUDED.error_kind,
  error      = EXCLUDED.error,
  updated_at = EXCLUDED.updated_at`

	_, err = r.DB.ExecContext(ctx, q,
		id, s.Wallet, s.Name, s.Symbol,
		progressJSON, string(s.Outcome), int64(s.FeePaid), nullableJSON(resultJSON), sigJSON,
		s.ErrorKind, s.Error, s.CreatedAt.UTC(), s.UpdatedAt.UTC(),
	)
	if err != nil {
		return errors.Wrapf(err, "postgres: save submission %s", id)
	}
	return nil
}

func (r *SubmissionRepositoryPG) Get(ctx context.Context, id string) (submission.Submission, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return submission.Submission{}, submission.ErrNotFound
	}

	const q = `
SELECT
  id, wallet, name, symbol, progress, outcome, fee_paid, result, signatures,
  error_kind, error, created_at, updated_at
FROM mint_submissions
WHERE id = $1
LIMIT 1`
	s, err := scanSubmission(r.DB.QueryRowContext(ctx, q, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return submission.Submission{}, submission.ErrNotFound
		}
		return submission.Submission{}, errors.Wrapf(err, "postgres: get submission %s", id)
	}
	return s, nil
}

// ========================================
// helpers
// ========================================

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(row scanner) (submission.Submission, error) {
	var (
		s                  submission.Submission
		progressJSON, sigs []byte
		resultJSON         []byte
		outcome            string
		feePaid            int64
	)
	if err := row.Scan(
		&s.ID, &s.Wallet, &s.Name, &s.Symbol,
		&progressJSON, &outcome, &feePaid, &resultJSON, &sigs,
		&s.ErrorKind, &s.Error, &s.CreatedAt, &s.UpdatedAt,
	); err != nil {
		return submission.Submission{}, err
	}

	if err := json.Unmarshal(progressJSON, &s.Progress); err != nil {
		return submission.Submission{}, errors.Wrap(err, "decode progress")
	}
	if len(resultJSON) > 0 {
		var res tokendom.MintResult
		if err := json.Unmarshal(resultJSON, &res); err != nil {
			return submission.Submission{}, errors.Wrap(err, "decode result")
		}
		s.Result = &res
	}
	if len(sigs) > 0 {
		if err := json.Unmarshal(sigs, &s.Signatures); err != nil {
			return submission.Submission{}, errors.Wrap(err, "decode signatures")
		}
		if len(s.Signatures) == 0 {
			s.Signatures = nil
		}
	}
	s.FeePaid = fee.Lamports(feePaid)
	s.Outcome = mintapp.Outcome(outcome)
	s.CreatedAt = s.CreatedAt.UTC()
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
