package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// ScreeningRepo manages persistence for screenings.  Reads always join
// the film so the derived end time can be computed without a second
// round trip.
type ScreeningRepo struct {
	db *sql.DB
}

// NewScreeningRepo constructs a ScreeningRepo with the given DB handle.
func NewScreeningRepo(db *sql.DB) *ScreeningRepo {
	return &ScreeningRepo{db: db}
}

const screeningSelect = `SELECT s.id, s.film_id, s.starts_at, s.hall, s.ticket_price, f.title, f.duration_minutes, s.created_at, s.updated_at
               FROM screenings s
               JOIN films f ON f.id = s.film_id`

func scanScreening(row interface{ Scan(...any) error }, s *model.Screening) error {
	return row.Scan(&s.ID, &s.FilmID, &s.StartsAt, &s.Hall, &s.TicketPrice, &s.FilmTitle, &s.FilmDuration, &s.CreatedAt, &s.UpdatedAt)
}

// Create inserts a screening and reloads it with the joined film columns.
func (r *ScreeningRepo) Create(ctx context.Context, s *model.Screening) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`INSERT INTO screenings (film_id, starts_at, hall, ticket_price) VALUES (?, ?, ?, ?)`,
		s.FilmID, s.StartsAt.UTC(), s.Hall, s.TicketPrice)
	if err != nil {
		return wrap("create screening", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrap("create screening", err)
	}
	err = scanScreening(q.QueryRowContext(ctx, screeningSelect+` WHERE s.id = ?`, id), s)
	return wrap("reload screening", err)
}

// GetByID retrieves a screening by its ID.  It returns ErrNotFound if
// there is no matching row.
func (r *ScreeningRepo) GetByID(ctx context.Context, id uint64) (*model.Screening, error) {
	return r.get(ctx, screeningSelect+` WHERE s.id = ?`, id)
}

// GetByIDForUpdate is GetByID with the screening row locked until the
// enclosing transaction ends.
func (r *ScreeningRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Screening, error) {
	return r.get(ctx, screeningSelect+` WHERE s.id = ? FOR UPDATE OF s`, id)
}

func (r *ScreeningRepo) get(ctx context.Context, query string, id uint64) (*model.Screening, error) {
	var s model.Screening
	if err := scanScreening(conn(ctx, r.db).QueryRowContext(ctx, query, id), &s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get screening", err)
	}
	return &s, nil
}

// ListByHallForUpdate returns every screening in hall and locks the
// matching index range, so a concurrent writer scheduling into the same
// hall waits until this transaction ends.
func (r *ScreeningRepo) ListByHallForUpdate(ctx context.Context, hall string) ([]model.Screening, error) {
	return r.list(ctx, "list hall screenings",
		screeningSelect+` WHERE s.hall = ? ORDER BY s.starts_at ASC FOR UPDATE OF s`, hall)
}

// ListByFilm returns every screening of the film, past ones included,
// ordered by start time.
func (r *ScreeningRepo) ListByFilm(ctx context.Context, filmID uint64) ([]model.Screening, error) {
	return r.list(ctx, "list film screenings",
		screeningSelect+` WHERE s.film_id = ? ORDER BY s.starts_at ASC`, filmID)
}

// List returns screenings matching filter ordered by start time.  From
// and To are inclusive bounds.
func (r *ScreeningRepo) List(ctx context.Context, filter model.ScreeningFilter) ([]model.Screening, error) {
	var (
		conds []string
		args  []any
	)
	if filter.FilmID != nil {
		conds = append(conds, "s.film_id = ?")
		args = append(args, *filter.FilmID)
	}
	if filter.From != nil {
		conds = append(conds, "s.starts_at >= ?")
		args = append(args, filter.From.UTC())
	}
	if filter.To != nil {
		conds = append(conds, "s.starts_at <= ?")
		args = append(args, filter.To.UTC())
	}
	query := screeningSelect
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return r.list(ctx, "list screenings", query+" ORDER BY s.starts_at ASC", args...)
}

// ListStartingAfter returns screenings whose start is strictly after t.
func (r *ScreeningRepo) ListStartingAfter(ctx context.Context, t time.Time) ([]model.Screening, error) {
	return r.list(ctx, "list upcoming screenings",
		screeningSelect+` WHERE s.starts_at > ? ORDER BY s.starts_at ASC`, t.UTC())
}

// ListBetween returns screenings starting in [from, to).
func (r *ScreeningRepo) ListBetween(ctx context.Context, from, to time.Time) ([]model.Screening, error) {
	return r.list(ctx, "list screenings between",
		screeningSelect+` WHERE s.starts_at >= ? AND s.starts_at < ? ORDER BY s.starts_at ASC`, from.UTC(), to.UTC())
}

func (r *ScreeningRepo) list(ctx context.Context, op, query string, args ...any) ([]model.Screening, error) {
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()
	result := []model.Screening{}
	for rows.Next() {
		var s model.Screening
		if err := scanScreening(rows, &s); err != nil {
			return nil, wrap(op, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	return result, nil
}

// CountByFilm reports how many screenings of the film start after now
// and how many in total reference it.
func (r *ScreeningRepo) CountByFilm(ctx context.Context, filmID uint64, now time.Time) (future, total int, err error) {
	const q = `SELECT COALESCE(SUM(starts_at > ?), 0), COUNT(*) FROM screenings WHERE film_id = ?`
	if err := conn(ctx, r.db).QueryRowContext(ctx, q, now.UTC(), filmID).Scan(&future, &total); err != nil {
		return 0, 0, wrap("count film screenings", err)
	}
	return future, total, nil
}

// Update writes start time, hall and price of s and reloads the row.
func (r *ScreeningRepo) Update(ctx context.Context, s *model.Screening) error {
	q := conn(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`UPDATE screenings SET starts_at = ?, hall = ?, ticket_price = ? WHERE id = ?`,
		s.StartsAt.UTC(), s.Hall, s.TicketPrice, s.ID)
	if err != nil {
		return wrap("update screening", err)
	}
	err = scanScreening(q.QueryRowContext(ctx, screeningSelect+` WHERE s.id = ?`, s.ID), s)
	return wrap("reload screening", err)
}

// Delete removes a screening.  Its tickets must already be gone; see
// TicketRepo.DeleteByScreening.
func (r *ScreeningRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM screenings WHERE id = ?`, id)
	return affected("delete screening", res, err)
}
