// internal/adapters/out/firestore/submission_repository_fs.go
package firestore

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	mintapp "mintx/internal/application/mint"
	"mintx/internal/application/submission"
	"mintx/internal/domain/fee"
	"mintx/internal/domain/progress"
	tokendom "mintx/internal/domain/token"
)

const submissionsCollection = "mint_submissions"

var _ submission.Repository = (*SubmissionRepositoryFS)(nil)

// SubmissionRepositoryFS implements submission.Repository using Firestore.
type SubmissionRepositoryFS struct {
	Client *firestore.Client
}

func NewSubmissionRepositoryFS(client *firestore.Client) *SubmissionRepositoryFS {
	return &SubmissionRepositoryFS{Client: client}
}

func (r *SubmissionRepositoryFS) col() *firestore.CollectionRef {
	return r.Client.Collection(submissionsCollection)
}

// Save は ID をドキュメント ID として丸ごと上書きします。
func (r *SubmissionRepositoryFS) Save(ctx context.Context, s submission.Submission) error {
	if r.Client == nil {
		return errors.New("firestore client is nil")
	}
	id := strings.TrimSpace(s.ID)
	if id == "" {
		return errors.New("firestore: submission id is empty")
	}
	if _, err := r.col().Doc(id).Set(ctx, toDoc(s)); err != nil {
		return errors.Wrapf(err, "firestore: save submission %s", id)
	}
	return nil
}

func (r *SubmissionRepositoryFS) Get(ctx context.Context, id string) (submission.Submission, error) {
	if r.Client == nil {
		return submission.Submission{}, errors.New("firestore client is nil")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return submission.Submission{}, submission.ErrNotFound
	}

	snap, err := r.col().Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return submission.Submission{}, submission.ErrNotFound
	}
	if err != nil {
		return submission.Submission{}, errors.Wrapf(err, "firestore: get submission %s", id)
	}

	var d submissionDoc
	if err := snap.DataTo(&d); err != nil {
		return submission.Submission{}, errors.Wrapf(err, "firestore: decode submission %s", id)
	}
	return fromDoc(snap.Ref.ID, d), nil
}

// ========================================
// document mapping
// ========================================

type progressDoc struct {
	Status      string `firestore:"status"`
	Message     string `firestore:"message"`
	Percent     int64  `firestore:"percent"`
	Attempt     int64  `firestore:"attempt,omitempty"`
	MaxAttempts int64  `firestore:"maxAttempts,omitempty"`
	RetryInMs   int64  `firestore:"retryInMs,omitempty"`
}

type resultDoc struct {
	MintAddress         string `firestore:"mintAddress"`
	MetadataURI         string `firestore:"metadataUri"`
	TokenAccountAddress string `firestore:"tokenAccountAddress"`
}

// Firestore は uint64 を扱えないので lamports は int64 で持つ
type submissionDoc struct {
	Wallet     string            `firestore:"wallet"`
	Name       string            `firestore:"name"`
	Symbol     string            `firestore:"symbol"`
	Progress   progressDoc       `firestore:"progress"`
	Outcome    string            `firestore:"outcome,omitempty"`
	FeePaid    int64             `firestore:"feePaidLamports"`
	Result     *resultDoc        `firestore:"result,omitempty"`
	Signatures map[string]string `firestore:"signatures,omitempty"`
	ErrorKind  string            `firestore:"errorKind,omitempty"`
	Error      string            `firestore:"error,omitempty"`
	CreatedAt  time.Time         `firestore:"createdAt"`
	UpdatedAt  time.Time         `firestore:"updatedAt"`
}

func toDoc(s submission.Submission) submissionDoc {
	d := submissionDoc{
		Wallet: s.Wallet,
		Name:   s.Name,
		Symbol: s.Symbol,
		Progress: progressDoc{
			Status:      string(s.Progress.Status),
			Message:     s.Progress.Message,
			Percent:     int64(s.Progress.Percent),
			Attempt:     int64(s.Progress.Attempt),
			MaxAttempts: int64(s.Progress.MaxAttempts),
			RetryInMs:   s.Progress.RetryIn.Milliseconds(),
		},
		Outcome:    string(s.Outcome),
		FeePaid:    int64(s.FeePaid),
		Signatures: s.Signatures,
		ErrorKind:  s.ErrorKind,
		Error:      s.Error,
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
	if s.Result != nil {
		d.Result = &resultDoc{
			MintAddress:         s.Result.MintAddress,
			MetadataURI:         s.Result.MetadataURI,
			TokenAccountAddress: s.Result.TokenAccountAddress,
		}
	}
	return d
}

func fromDoc(id string, d submissionDoc) submission.Submission {
	s := submission.Submission{
		ID:     id,
		Wallet: d.Wallet,
		Name:   d.Name,
		Symbol: d.Symbol,
		Progress: progress.State{
			Status:      progress.Status(d.Progress.Status),
			Message:     d.Progress.Message,
			Percent:     int(d.Progress.Percent),
			Attempt:     int(d.Progress.Attempt),
			MaxAttempts: int(d.Progress.MaxAttempts),
			RetryIn:     time.Duration(d.Progress.RetryInMs) * time.Millisecond,
		},
		Outcome:    mintapp.Outcome(d.Outcome),
		FeePaid:    fee.Lamports(d.FeePaid),
		Signatures: d.Signatures,
		ErrorKind:  d.ErrorKind,
		Error:      d.Error,
		CreatedAt:  d.CreatedAt.UTC(),
		UpdatedAt:  d.UpdatedAt.UTC(),
	}
	if d.Result != nil {
		s.Result = &tokendom.MintResult{
			MintAddress:         d.Result.MintAddress,
			MetadataURI:         d.Result.MetadataURI,
			TokenAccountAddress: d.Result.TokenAccountAddress,
		}
	}
	return s
}
