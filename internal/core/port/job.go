package port

import (
	"context"
	"time"

	"github.com/google/uuid"

	"todolists/internal/core/domain"
)

// JobRunner is a durable at-least-once work queue.
type JobRunner interface {
	Enqueue(ctx context.Context, spec domain.JobSpec) (uuid.UUID, error)
	EnqueueUnique(ctx context.Context, scope string, policy domain.UniquePolicy, spec domain.JobSpec) (uuid.UUID, error)
	EnqueueChain(ctx context.Context, specs ...domain.JobSpec) ([]uuid.UUID, error)
}

type JobHandler func(ctx context.Context, input domain.JobInput) error

type JobRepository interface {
	Insert(ctx context.Context, jobs []domain.Job) ([]domain.Job, error)
	InsertUnique(ctx context.Context, scope string, policy domain.UniquePolicy, job domain.Job) (domain.Job, error)
	GetByUUID(ctx context.Context, id uuid.UUID) (domain.Job, error)
	ClaimReady(ctx context.Context, now time.Time, limit int) ([]domain.Job, error)
	MarkSucceeded(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, lastError string) error
	Reschedule(ctx context.Context, id int64, runAfter time.Time, lastError string) error
	RequeueRunning(ctx context.Context) (int64, error)
	CountByState(ctx context.Context) (map[domain.JobState]int, error)
	List(ctx context.Context, limit int, beforeID int64) ([]domain.Job, bool, error)
}

type Dispatcher interface {
	Submit(ctx context.Context, signal domain.Signal) error
}
