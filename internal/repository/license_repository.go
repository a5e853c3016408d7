package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// LicenseRepo reads screening licenses.  Licenses are written by the
// procurement tooling, so this repository only exposes lookups.
type LicenseRepo struct {
	db *sql.DB
}

// NewLicenseRepo constructs a LicenseRepo with the given DB handle.
func NewLicenseRepo(db *sql.DB) *LicenseRepo {
	return &LicenseRepo{db: db}
}

const licenseCols = `id, supplier_id, contract_id, film_title, digital_key, start_date, end_date`

func scanLicense(row interface{ Scan(...any) error }, l *model.License) error {
	var key sql.NullString
	if err := row.Scan(&l.ID, &l.SupplierID, &l.ContractID, &l.FilmTitle, &key, &l.StartDate, &l.EndDate); err != nil {
		return err
	}
	l.DigitalKey = nil
	if key.Valid {
		k := key.String
		l.DigitalKey = &k
	}
	return nil
}

// GetByID retrieves a license by its ID.  It returns ErrNotFound if
// there is no matching row.
func (r *LicenseRepo) GetByID(ctx context.Context, id uint64) (*model.License, error) {
	var l model.License
	err := scanLicense(conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+licenseCols+` FROM licenses WHERE id = ?`, id), &l)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get license", err)
	}
	return &l, nil
}

// ListEndingBetween returns licenses whose end date lies in [from, to],
// soonest first.
func (r *LicenseRepo) ListEndingBetween(ctx context.Context, from, to time.Time) ([]model.License, error) {
	const q = `SELECT ` + licenseCols + ` FROM licenses
               WHERE end_date >= ? AND end_date <= ?
               ORDER BY end_date ASC, id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, from.Format(time.DateOnly), to.Format(time.DateOnly))
	if err != nil {
		return nil, wrap("list expiring licenses", err)
	}
	defer rows.Close()
	result := []model.License{}
	for rows.Next() {
		var l model.License
		if err := scanLicense(rows, &l); err != nil {
			return nil, wrap("list expiring licenses", err)
		}
		result = append(result, l)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list expiring licenses", err)
	}
	return result, nil
}
