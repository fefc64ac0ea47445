package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("lead not found")

// ErrNoMatch is returned by patch-only operations when no stored call event
// matches the given phone and time window.
var ErrNoMatch = errors.New("no matching call event")

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type Lead struct {
	ID                uuid.UUID
	Phone             string
	DisplayName       string
	NeedsManualReview bool
	LastContactAt     *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type CallEvent struct {
	ID              uuid.UUID
	LeadID          uuid.UUID
	Direction       string
	Outcome         string
	OccurredAt      time.Time
	DurationSeconds *int
	Final           bool
	CreatedAt       time.Time
}

// CallEventParams describes one call event write.
type CallEventParams struct {
	LeadID          uuid.UUID
	Direction       string
	Outcome         string
	OccurredAt      time.Time
	DurationSeconds *int
}

// CallLogPatchParams describes a patch sourced from the device call log.
// Window bounds the time-proximity match around OccurredAt.
type CallLogPatchParams struct {
	Phone           string
	OccurredAt      time.Time
	DurationSeconds int
	Outcome         string
	Window          time.Duration
}

const leadColumns = `id, phone, display_name, needs_manual_review, last_contact_at, created_at, updated_at`

// FindOrCreateByPhone returns the lead for a phone number, creating it when
// unseen. The upsert makes concurrent calls for the same number converge on
// one row.
func (r *Repository) FindOrCreateByPhone(ctx context.Context, phone string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (phone)
		VALUES ($1)
		ON CONFLICT (phone) DO UPDATE SET updated_at = now()
		RETURNING `+leadColumns,
		phone)
	return scanLead(row)
}

// FindByPhone returns the lead for a phone number or ErrNotFound.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE phone = $1
	`, phone)
	lead, err := scanLead(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	return lead, err
}

// AddCallEvent appends an intermediate (non-final) call event and bumps the
// lead's last contact time.
func (r *Repository) AddCallEvent(ctx context.Context, p CallEventParams) (CallEvent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CallEvent{}, err
	}
	defer tx.Rollback(ctx)

	var event CallEvent
	err = tx.QueryRow(ctx, `
		INSERT INTO lead_call_events (lead_id, direction, outcome, occurred_at, duration_seconds)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, lead_id, direction, outcome, occurred_at, duration_seconds, final, created_at
	`, p.LeadID, p.Direction, p.Outcome, p.OccurredAt, p.DurationSeconds).Scan(
		&event.ID, &event.LeadID, &event.Direction, &event.Outcome,
		&event.OccurredAt, &event.DurationSeconds, &event.Final, &event.CreatedAt)
	if err != nil {
		return CallEvent{}, err
	}

	if err := touchLastContact(ctx, tx, p.LeadID, p.OccurredAt); err != nil {
		return CallEvent{}, err
	}

	return event, tx.Commit(ctx)
}

// AddFinalCallEvent records the single terminal event for one physical call.
// The most recent non-final event within the window is promoted in place;
// without one a fresh final row is inserted. A final row already in the
// window makes the call a no-op, so retried writes stay idempotent.
func (r *Repository) AddFinalCallEvent(ctx context.Context, p CallEventParams, window time.Duration) (CallEvent, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return CallEvent{}, err
	}
	defer tx.Rollback(ctx)

	from := p.OccurredAt.Add(-window)
	to := p.OccurredAt.Add(window)

	var existing CallEvent
	err = tx.QueryRow(ctx, `
		SELECT id, lead_id, direction, outcome, occurred_at, duration_seconds, final, created_at
		FROM lead_call_events
		WHERE lead_id = $1 AND final = TRUE AND occurred_at BETWEEN $2 AND $3
		ORDER BY occurred_at DESC
		LIMIT 1
	`, p.LeadID, from, to).Scan(
		&existing.ID, &existing.LeadID, &existing.Direction, &existing.Outcome,
		&existing.OccurredAt, &existing.DurationSeconds, &existing.Final, &existing.CreatedAt)
	if err == nil {
		return existing, tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return CallEvent{}, err
	}

	var event CallEvent
	err = tx.QueryRow(ctx, `
		UPDATE lead_call_events
		SET outcome = $1, occurred_at = $2, duration_seconds = $3, final = TRUE, updated_at = now()
		WHERE id = (
			SELECT id FROM lead_call_events
			WHERE lead_id = $4 AND final = FALSE AND occurred_at BETWEEN $5 AND $6
			ORDER BY occurred_at DESC
			LIMIT 1
		)
		RETURNING id, lead_id, direction, outcome, occurred_at, duration_seconds, final, created_at
	`, p.Outcome, p.OccurredAt, p.DurationSeconds, p.LeadID, from, to).Scan(
		&event.ID, &event.LeadID, &event.Direction, &event.Outcome,
		&event.OccurredAt, &event.DurationSeconds, &event.Final, &event.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		err = tx.QueryRow(ctx, `
			INSERT INTO lead_call_events (lead_id, direction, outcome, occurred_at, duration_seconds, final)
			VALUES ($1, $2, $3, $4, $5, TRUE)
			RETURNING id, lead_id, direction, outcome, occurred_at, duration_seconds, final, created_at
		`, p.LeadID, p.Direction, p.Outcome, p.OccurredAt, p.DurationSeconds).Scan(
			&event.ID, &event.LeadID, &event.Direction, &event.Outcome,
			&event.OccurredAt, &event.DurationSeconds, &event.Final, &event.CreatedAt)
	}
	if err != nil {
		return CallEvent{}, err
	}

	if err := touchLastContact(ctx, tx, p.LeadID, p.OccurredAt); err != nil {
		return CallEvent{}, err
	}

	return event, tx.Commit(ctx)
}

// UpdateCallFromCallLog patches the closest stored call event for the phone
// within the window with the authoritative duration (and outcome, when
// given). Patch-only: returns ErrNoMatch instead of inserting history.
func (r *Repository) UpdateCallFromCallLog(ctx context.Context, p CallLogPatchParams) (CallEvent, error) {
	from := p.OccurredAt.Add(-p.Window)
	to := p.OccurredAt.Add(p.Window)

	args := []any{p.DurationSeconds, p.Phone, from, to, p.OccurredAt}
	outcomeSQL := ""
	if p.Outcome != "" {
		outcomeSQL = ", outcome = $6"
		args = append(args, p.Outcome)
	}

	var event CallEvent
	err := r.pool.QueryRow(ctx, `
		UPDATE lead_call_events
		SET duration_seconds = $1, updated_at = now()`+outcomeSQL+`
		WHERE id = (
			SELECT e.id
			FROM lead_call_events e
			JOIN leads l ON l.id = e.lead_id
			WHERE l.phone = $2 AND e.occurred_at BETWEEN $3 AND $4
			ORDER BY abs(EXTRACT(EPOCH FROM (e.occurred_at - $5::timestamptz)))
			LIMIT 1
		)
		RETURNING id, lead_id, direction, outcome, occurred_at, duration_seconds, final, created_at
	`, args...).Scan(
		&event.ID, &event.LeadID, &event.Direction, &event.Outcome,
		&event.OccurredAt, &event.DurationSeconds, &event.Final, &event.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return CallEvent{}, ErrNoMatch
	}
	if err != nil {
		return CallEvent{}, err
	}
	return event, nil
}

// MarkNeedsManualReview flags the lead for operator attention.
func (r *Repository) MarkNeedsManualReview(ctx context.Context, leadID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE leads SET needs_manual_review = TRUE, updated_at = now()
		WHERE id = $1
	`, leadID)
	return err
}

// ListCallHistory returns the lead's call events, newest first.
func (r *Repository) ListCallHistory(ctx context.Context, leadID uuid.UUID, limit int) ([]CallEvent, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, lead_id, direction, outcome, occurred_at, duration_seconds, final, created_at
		FROM lead_call_events
		WHERE lead_id = $1
		ORDER BY occurred_at DESC
		LIMIT $2
	`, leadID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]CallEvent, 0)
	for rows.Next() {
		var event CallEvent
		if err := rows.Scan(
			&event.ID, &event.LeadID, &event.Direction, &event.Outcome,
			&event.OccurredAt, &event.DurationSeconds, &event.Final, &event.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, event)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return items, nil
}

type pgxRow interface {
	Scan(dest ...any) error
}

func scanLead(row pgxRow) (Lead, error) {
	var lead Lead
	err := row.Scan(&lead.ID, &lead.Phone, &lead.DisplayName, &lead.NeedsManualReview,
		&lead.LastContactAt, &lead.CreatedAt, &lead.UpdatedAt)
	return lead, err
}

func touchLastContact(ctx context.Context, tx pgx.Tx, leadID uuid.UUID, occurredAt time.Time) error {
	_, err := tx.Exec(ctx, `
		UPDATE leads
		SET last_contact_at = GREATEST(COALESCE(last_contact_at, $2), $2), updated_at = now()
		WHERE id = $1
	`, leadID, occurredAt)
	return err
}
