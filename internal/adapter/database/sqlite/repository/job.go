package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"todolists/internal/adapter/database/sqlite"
	"todolists/internal/core/domain"
	"todolists/internal/core/port"
	tel "todolists/internal/core/telemetry"
)

var ErrJobNotFound = errors.New("job not found")

var jobColumns = []string{
	"id", "uuid", "kind", "input", "scope", "state", "attempts", "max_attempts",
	"run_after", "depends_on", "strict_dependency", "last_error", "created_at", "updated_at",
}

// readyDependency holds for a job whose predecessor settled the way the
// dependency requires: strict dependents need success, loose ones any outcome.
const readyDependency = `EXISTS (SELECT 1 FROM job d WHERE d.id = job.depends_on AND (d.state = 'succeeded' OR (job.strict_dependency = 0 AND d.state IN ('failed', 'cancelled'))))`

type jobRow struct {
	ID               int64     `db:"id"`
	UUID             uuid.UUID `db:"uuid"`
	Kind             string    `db:"kind"`
	Input            string    `db:"input"`
	Scope            *string   `db:"scope"`
	State            string    `db:"state"`
	Attempts         int       `db:"attempts"`
	MaxAttempts      int       `db:"max_attempts"`
	RunAfter         int64     `db:"run_after"`
	DependsOn        *int64    `db:"depends_on"`
	StrictDependency bool      `db:"strict_dependency"`
	LastError        string    `db:"last_error"`
	CreatedAt        time.Time `db:"created_at"`
	UpdatedAt        time.Time `db:"updated_at"`
}

func (r jobRow) toDomain() (domain.Job, error) {
	var input domain.JobInput

	if r.Input != "" {
		if err := json.Unmarshal([]byte(r.Input), &input); err != nil {
			return domain.Job{}, fmt.Errorf("job %d: decode input: %w", r.ID, err)
		}
	}

	job := domain.Job{
		ID:               r.ID,
		UUID:             r.UUID,
		Kind:             domain.JobKind(r.Kind),
		Input:            input,
		State:            domain.JobState(r.State),
		Attempts:         r.Attempts,
		MaxAttempts:      r.MaxAttempts,
		RunAfter:         time.UnixMilli(r.RunAfter),
		DependsOn:        r.DependsOn,
		StrictDependency: r.StrictDependency,
		LastError:        r.LastError,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}

	if r.Scope != nil {
		job.Scope = *r.Scope
	}

	return job, nil
}

type JobRepository struct {
	db        *sqlite.DB
	scanner   *sqlite.Scanner
	telemetry port.Telemetry
	now       func() time.Time
}

func NewJobRepository(db *sqlite.DB, telemetry port.Telemetry) *JobRepository {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &JobRepository{
		db:        db,
		scanner:   sqlite.NewScanner(),
		telemetry: telemetry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

var _ port.JobRepository = (*JobRepository)(nil)

// Insert stores the jobs in one transaction. A job flagged StrictDependency
// without an explicit DependsOn depends on the job inserted just before it.
func (jr *JobRepository) Insert(ctx context.Context, jobs []domain.Job) ([]domain.Job, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "Insert", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "INSERT",
		"jobs.count":   len(jobs),
	})

	saved := make([]domain.Job, 0, len(jobs))

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var previous *int64

		for _, job := range jobs {
			if job.StrictDependency && job.DependsOn == nil {
				job.DependsOn = previous
			}

			stored, err := jr.insertJob(ctx, op, tx, job)
			if err != nil {
				return err
			}

			previous = &stored.ID
			saved = append(saved, stored)
		}

		return nil
	})

	if err != nil {
		return nil, op.End(err)
	}

	return saved, op.End(nil)
}

// InsertUnique stores the job in a scope. Append makes it wait for the
// scope's latest unfinished job; Replace cancels the scope's queued jobs first.
func (jr *JobRepository) InsertUnique(ctx context.Context, scope string, policy domain.UniquePolicy, job domain.Job) (domain.Job, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "InsertUnique", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "INSERT",
		"job.scope":    scope,
		"job.policy":   string(policy),
	})

	var saved domain.Job

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		job.Scope = scope
		job.StrictDependency = false
		job.DependsOn = nil

		switch policy {
		case domain.UniqueReplace:
			if _, err := jr.exec(ctx, op, tx, jr.db.QueryBuilder.Update("job").
				Set("state", string(domain.JobCancelled)).
				Set("last_error", "replaced").
				Set("updated_at", jr.now()).
				Where(sq.Eq{"scope": scope, "state": string(domain.JobQueued)})); err != nil {
				return err
			}
		default:
			query, args, err := jr.db.QueryBuilder.Select("id").
				From("job").
				Where(sq.Eq{"scope": scope, "state": []string{string(domain.JobQueued), string(domain.JobRunning)}}).
				OrderBy("id DESC").
				Limit(1).
				ToSql()
			if err != nil {
				return err
			}

			op.Query(query, args)

			var last int64
			err = tx.QueryRowContext(ctx, query, args...).Scan(&last)

			switch {
			case errors.Is(err, sql.ErrNoRows):
			case err != nil:
				return err
			default:
				job.DependsOn = &last
			}
		}

		var err error
		saved, err = jr.insertJob(ctx, op, tx, job)
		return err
	})

	return saved, op.End(err)
}

func (jr *JobRepository) GetByUUID(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "GetByUUID", "job", map[string]interface{}{
		"db.system": "sqlite",
		"db.table":  "job",
		"job.uuid":  id.String(),
	})

	var job domain.Job

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		jobs, err := jr.queryJobs(ctx, op, tx, jr.db.QueryBuilder.Select(jobColumns...).
			From("job").
			Where(sq.Eq{"uuid": id.String()}).
			Limit(1))
		if err != nil {
			return err
		}

		if len(jobs) == 0 {
			return fmt.Errorf("job with uuid %s: %w", id, ErrJobNotFound)
		}

		job = jobs[0]
		return nil
	})

	return job, op.End(err)
}

// ClaimReady moves up to limit due jobs whose dependency has settled to running.
func (jr *JobRepository) ClaimReady(ctx context.Context, now time.Time, limit int) ([]domain.Job, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "ClaimReady", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "UPDATE",
		"claim.limit":  limit,
	})

	var claimed []domain.Job

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		jobs, err := jr.queryJobs(ctx, op, tx, jr.db.QueryBuilder.Select(jobColumns...).
			From("job").
			Where(sq.Eq{"state": string(domain.JobQueued)}).
			Where(sq.LtOrEq{"run_after": now.UnixMilli()}).
			Where(sq.Or{sq.Expr("depends_on IS NULL"), sq.Expr(readyDependency)}).
			OrderBy("run_after ASC", "id ASC").
			Limit(uint64(limit)))
		if err != nil || len(jobs) == 0 {
			return err
		}

		ids := make([]int64, 0, len(jobs))
		for _, job := range jobs {
			ids = append(ids, job.ID)
		}

		updatedAt := jr.now()

		if _, err := jr.exec(ctx, op, tx, jr.db.QueryBuilder.Update("job").
			Set("state", string(domain.JobRunning)).
			Set("attempts", sq.Expr("attempts + 1")).
			Set("updated_at", updatedAt).
			Where(sq.Eq{"id": ids})); err != nil {
			return err
		}

		for _, job := range jobs {
			job.State = domain.JobRunning
			job.Attempts++
			job.UpdatedAt = updatedAt
			claimed = append(claimed, job)
		}

		return nil
	})

	op.SetAttributes(map[string]interface{}{"jobs.claimed": len(claimed)})

	return claimed, op.End(err)
}

func (jr *JobRepository) MarkSucceeded(ctx context.Context, id int64) error {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "MarkSucceeded", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "UPDATE",
		"job.id":       id,
	})

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		return jr.setState(ctx, op, tx, id, domain.JobSucceeded, "")
	})

	return op.End(err)
}

// MarkFailed fails the job and cancels every queued job that strictly
// depends on it, transitively.
func (jr *JobRepository) MarkFailed(ctx context.Context, id int64, lastError string) error {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "MarkFailed", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "UPDATE",
		"job.id":       id,
	})

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := jr.setState(ctx, op, tx, id, domain.JobFailed, lastError); err != nil {
			return err
		}

		frontier := []int64{id}
		reason := fmt.Sprintf("dependency %d did not succeed", id)

		for len(frontier) > 0 {
			query, args, err := jr.db.QueryBuilder.Select("id").
				From("job").
				Where(sq.Eq{
					"depends_on":        frontier,
					"strict_dependency": true,
					"state":             string(domain.JobQueued),
				}).
				ToSql()
			if err != nil {
				return err
			}

			op.Query(query, args)

			dependents, err := queryIDs(ctx, tx, query, args)
			if err != nil {
				return err
			}

			if len(dependents) == 0 {
				break
			}

			if _, err := jr.exec(ctx, op, tx, jr.db.QueryBuilder.Update("job").
				Set("state", string(domain.JobCancelled)).
				Set("last_error", reason).
				Set("updated_at", jr.now()).
				Where(sq.Eq{"id": dependents})); err != nil {
				return err
			}

			frontier = dependents
		}

		return nil
	})

	return op.End(err)
}

func (jr *JobRepository) Reschedule(ctx context.Context, id int64, runAfter time.Time, lastError string) error {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "Reschedule", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "UPDATE",
		"job.id":       id,
	})

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		affected, err := jr.exec(ctx, op, tx, jr.db.QueryBuilder.Update("job").
			Set("state", string(domain.JobQueued)).
			Set("run_after", runAfter.UnixMilli()).
			Set("last_error", lastError).
			Set("updated_at", jr.now()).
			Where(sq.Eq{"id": id}))

		if err == nil && affected == 0 {
			return fmt.Errorf("job with id %d: %w", id, ErrJobNotFound)
		}

		return err
	})

	return op.End(err)
}

// RequeueRunning returns jobs left running by a previous process to the queue.
func (jr *JobRepository) RequeueRunning(ctx context.Context) (int64, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "RequeueRunning", "job", map[string]interface{}{
		"db.system":    "sqlite",
		"db.table":     "job",
		"db.operation": "UPDATE",
	})

	var requeued int64

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		var err error
		requeued, err = jr.exec(ctx, op, tx, jr.db.QueryBuilder.Update("job").
			Set("state", string(domain.JobQueued)).
			Set("updated_at", jr.now()).
			Where(sq.Eq{"state": string(domain.JobRunning)}))
		return err
	})

	op.SetAttributes(map[string]interface{}{"db.rows_affected": requeued})

	return requeued, op.End(err)
}

func (jr *JobRepository) CountByState(ctx context.Context) (map[domain.JobState]int, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "CountByState", "job", map[string]interface{}{
		"db.system": "sqlite",
		"db.table":  "job",
	})

	counts := make(map[domain.JobState]int)

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		query, args, err := jr.db.QueryBuilder.Select("state", "COUNT(*)").
			From("job").
			GroupBy("state").
			ToSql()
		if err != nil {
			return err
		}

		op.Query(query, args)

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}

		defer rows.Close()

		for rows.Next() {
			var state string
			var count int

			if err := rows.Scan(&state, &count); err != nil {
				return err
			}

			counts[domain.JobState(state)] = count
		}

		return rows.Err()
	})

	return counts, op.End(err)
}

// List pages through jobs newest first. beforeID zero starts at the newest.
func (jr *JobRepository) List(ctx context.Context, limit int, beforeID int64) ([]domain.Job, bool, error) {
	ctx, op := tel.StartOperation(jr.telemetry, ctx, "List", "job", map[string]interface{}{
		"db.system":         "sqlite",
		"db.table":          "job",
		"pagination.limit":  limit,
		"pagination.cursor": beforeID,
	})

	actualLimit := limit + 1

	var jobs []domain.Job

	err := jr.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := jr.db.QueryBuilder.Select(jobColumns...).
			From("job").
			OrderBy("id DESC").
			Limit(uint64(actualLimit))

		if beforeID > 0 {
			query = query.Where(sq.Lt{"id": beforeID})
		}

		var err error
		jobs, err = jr.queryJobs(ctx, op, tx, query)
		return err
	})

	if err != nil {
		return nil, false, op.End(err)
	}

	hasNext := len(jobs) == actualLimit
	if hasNext {
		jobs = jobs[:limit]
	}

	op.SetAttributes(map[string]interface{}{
		"db.rows_returned": len(jobs),
		"db.has_next":      hasNext,
	})

	return jobs, hasNext, op.End(nil)
}

func (jr *JobRepository) insertJob(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, job domain.Job) (domain.Job, error) {
	input, err := json.Marshal(job.Input)
	if err != nil {
		return domain.Job{}, err
	}

	now := jr.now()

	if job.UUID == uuid.Nil {
		job.UUID = uuid.New()
	}

	if job.RunAfter.IsZero() {
		job.RunAfter = now
	}

	if job.MaxAttempts <= 0 {
		job.MaxAttempts = 5
	}

	var scope interface{}
	if job.Scope != "" {
		scope = job.Scope
	}

	query, args, err := jr.db.QueryBuilder.Insert("job").
		Columns("uuid", "kind", "input", "scope", "state", "attempts", "max_attempts",
			"run_after", "depends_on", "strict_dependency", "last_error", "created_at", "updated_at").
		Values(job.UUID.String(), string(job.Kind), string(input), scope, string(domain.JobQueued), 0, job.MaxAttempts,
			job.RunAfter.UnixMilli(), job.DependsOn, job.StrictDependency, "", now, now).
		ToSql()
	if err != nil {
		return domain.Job{}, err
	}

	op.Query(query, args)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Job{}, err
	}

	job.ID, err = result.LastInsertId()
	if err != nil {
		return domain.Job{}, err
	}

	job.State = domain.JobQueued
	job.Attempts = 0
	job.LastError = ""
	job.CreatedAt = now
	job.UpdatedAt = now

	return job, nil
}

func (jr *JobRepository) setState(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, id int64, state domain.JobState, lastError string) error {
	affected, err := jr.exec(ctx, op, tx, jr.db.QueryBuilder.Update("job").
		Set("state", string(state)).
		Set("last_error", lastError).
		Set("updated_at", jr.now()).
		Where(sq.Eq{"id": id}))

	if err == nil && affected == 0 {
		return fmt.Errorf("job with id %d: %w", id, ErrJobNotFound)
	}

	return err
}

func (jr *JobRepository) queryJobs(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, builder sq.SelectBuilder) ([]domain.Job, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, err
	}

	op.Query(query, args)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var records []jobRow
	if err := jr.scanner.ScanRowsToSlice(rows, &records); err != nil {
		return nil, err
	}

	jobs := make([]domain.Job, 0, len(records))
	for _, record := range records {
		job, err := record.toDomain()
		if err != nil {
			return nil, err
		}

		jobs = append(jobs, job)
	}

	return jobs, nil
}

func (jr *JobRepository) exec(ctx context.Context, op *tel.TelemetryOperation, tx *sql.Tx, builder sq.Sqlizer) (int64, error) {
	query, args, err := builder.ToSql()
	if err != nil {
		return 0, err
	}

	op.Query(query, args)

	result, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

func queryIDs(ctx context.Context, tx *sql.Tx, query string, args []interface{}) ([]int64, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}
