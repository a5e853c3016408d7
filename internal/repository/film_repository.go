package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// FilmRepo manages persistence for films.
type FilmRepo struct {
	db *sql.DB
}

// NewFilmRepo constructs a FilmRepo with the given DB handle.
func NewFilmRepo(db *sql.DB) *FilmRepo {
	return &FilmRepo{db: db}
}

const filmCols = `id, license_id, title, duration_minutes, description, created_at, updated_at`

func scanFilm(row interface{ Scan(...any) error }, f *model.Film) error {
	var license sql.NullInt64
	if err := row.Scan(&f.ID, &license, &f.Title, &f.DurationMinutes, &f.Description, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return err
	}
	f.LicenseID = nil
	if license.Valid {
		id := uint64(license.Int64)
		f.LicenseID = &id
	}
	return nil
}

// Create inserts a film and reloads it so DB defaults (timestamps) are
// populated on f.
func (r *FilmRepo) Create(ctx context.Context, f *model.Film) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`INSERT INTO films (license_id, title, duration_minutes, description) VALUES (?, ?, ?, ?)`,
		f.LicenseID, f.Title, f.DurationMinutes, f.Description)
	if err != nil {
		return wrap("create film", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrap("create film", err)
	}
	err = scanFilm(q.QueryRowContext(ctx, `SELECT `+filmCols+` FROM films WHERE id = ?`, id), f)
	return wrap("reload film", err)
}

// GetByID retrieves a film by its ID.  It returns ErrNotFound if there
// is no matching row.
func (r *FilmRepo) GetByID(ctx context.Context, id uint64) (*model.Film, error) {
	return r.get(ctx, `SELECT `+filmCols+` FROM films WHERE id = ?`, id)
}

// GetByIDForUpdate is GetByID with a row lock held until the enclosing
// transaction ends.
func (r *FilmRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Film, error) {
	return r.get(ctx, `SELECT `+filmCols+` FROM films WHERE id = ? FOR UPDATE`, id)
}

// FindByTitle looks a film up by title ignoring case.
func (r *FilmRepo) FindByTitle(ctx context.Context, title string) (*model.Film, error) {
	return r.get(ctx, `SELECT `+filmCols+` FROM films WHERE LOWER(title) = LOWER(?) LIMIT 1`, title)
}

func (r *FilmRepo) get(ctx context.Context, query string, arg any) (*model.Film, error) {
	var f model.Film
	err := scanFilm(conn(ctx, r.db).QueryRowContext(ctx, query, arg), &f)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get film", err)
	}
	return &f, nil
}

// Update writes every mutable column of f.
func (r *FilmRepo) Update(ctx context.Context, f *model.Film) error {
	q := conn(ctx, r.db)
	_, err := q.ExecContext(ctx,
		`UPDATE films SET license_id = ?, title = ?, duration_minutes = ?, description = ? WHERE id = ?`,
		f.LicenseID, f.Title, f.DurationMinutes, f.Description, f.ID)
	if err != nil {
		return wrap("update film", err)
	}
	err = scanFilm(q.QueryRowContext(ctx, `SELECT `+filmCols+` FROM films WHERE id = ?`, f.ID), f)
	return wrap("reload film", err)
}

// Delete removes a film.  The boolean reports whether a row was deleted.
func (r *FilmRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM films WHERE id = ?`, id)
	return affected("delete film", res, err)
}

// List returns films ordered by title.  With activeOnly set, only films
// having at least one screening starting after now are returned.
func (r *FilmRepo) List(ctx context.Context, activeOnly bool, now time.Time) ([]model.Film, error) {
	query := `SELECT ` + filmCols + ` FROM films ORDER BY title ASC`
	var args []any
	if activeOnly {
		query = `SELECT ` + filmCols + ` FROM films f
                 WHERE EXISTS (SELECT 1 FROM screenings s WHERE s.film_id = f.id AND s.starts_at > ?)
                 ORDER BY title ASC`
		args = append(args, now)
	}
	rows, err := conn(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list films", err)
	}
	defer rows.Close()
	films := []model.Film{}
	for rows.Next() {
		var f model.Film
		if err := scanFilm(rows, &f); err != nil {
			return nil, wrap("list films", err)
		}
		films = append(films, f)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list films", err)
	}
	return films, nil
}
