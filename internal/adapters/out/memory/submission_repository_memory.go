// internal/adapters/out/memory/submission_repository_memory.go
package memory

import (
	"context"
	"sync"

	"github.com/samber/lo"

	"mintx/internal/application/submission"
)

// SubmissionRepository はプロセス内 map に保存します（再起動で消える）。
type SubmissionRepository struct {
	mu   sync.RWMutex
	byID map[string]submission.Submission
}

func NewSubmissionRepository() *SubmissionRepository {
	return &SubmissionRepository{byID: make(map[string]submission.Submission)}
}

func (r *SubmissionRepository) Save(_ context.Context, s submission.Submission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byID[s.ID] = clone(s)
	return nil
}

func (r *SubmissionRepository) Get(_ context.Context, id string) (submission.Submission, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	return clone(s), nil
}

// 呼び出し側が map / pointer を書き換えても保存値に影響しないようにする
func clone(s submission.Submission) submission.Submission {
	if s.Signatures != nil {
		s.Signatures = lo.Assign(s.Signatures)
	}
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}
