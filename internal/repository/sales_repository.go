package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// SalesRepo reads sold tickets joined with their screening and film.
// It backs the reporting queries and never writes.
type SalesRepo struct {
	db *sql.DB
}

// NewSalesRepo constructs a SalesRepo with the given DB handle.
func NewSalesRepo(db *sql.DB) *SalesRepo {
	return &SalesRepo{db: db}
}

// SoldBetween returns every ticket sold in [from, to) ordered by sale
// time, then ticket id.
func (r *SalesRepo) SoldBetween(ctx context.Context, from, to time.Time) ([]model.Sale, error) {
	const q = `SELECT t.id, t.screening_id, f.id, f.title, t.price, t.sold_at
               FROM tickets t
               JOIN screenings s ON s.id = t.screening_id
               JOIN films f ON f.id = s.film_id
               WHERE t.sold = 1 AND t.sold_at >= ? AND t.sold_at < ?
               ORDER BY t.sold_at ASC, t.id ASC`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, from.UTC(), to.UTC())
	if err != nil {
		return nil, wrap("list sales", err)
	}
	defer rows.Close()
	sales := []model.Sale{}
	for rows.Next() {
		var s model.Sale
		if err := rows.Scan(&s.TicketID, &s.ScreeningID, &s.FilmID, &s.FilmTitle, &s.Price, &s.SoldAt); err != nil {
			return nil, wrap("list sales", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list sales", err)
	}
	return sales, nil
}
