package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
)

// TicketRepo manages persistence for tickets.  The sold flag only
// changes through MarkSold and MarkAvailable, which compare the current
// flag before writing so two concurrent transitions cannot both win.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo constructs a TicketRepo with the given DB handle.
func NewTicketRepo(db *sql.DB) *TicketRepo {
	return &TicketRepo{db: db}
}

const ticketCols = `id, screening_id, seat_number, price, sold, sold_at, order_id, created_at, updated_at`

func scanTicket(row interface{ Scan(...any) error }, t *model.Ticket) error {
	var (
		soldAt  sql.NullTime
		orderID sql.NullInt64
	)
	if err := row.Scan(&t.ID, &t.ScreeningID, &t.SeatNumber, &t.Price, &t.Sold, &soldAt, &orderID, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return err
	}
	t.SoldAt, t.OrderID = nil, nil
	if soldAt.Valid {
		at := soldAt.Time
		t.SoldAt = &at
	}
	if orderID.Valid {
		id := uint64(orderID.Int64)
		t.OrderID = &id
	}
	return nil
}

// Create inserts an unsold ticket and reloads it.
func (r *TicketRepo) Create(ctx context.Context, t *model.Ticket) error {
	q := conn(ctx, r.db)
	res, err := q.ExecContext(ctx,
		`INSERT INTO tickets (screening_id, seat_number, price) VALUES (?, ?, ?)`,
		t.ScreeningID, t.SeatNumber, t.Price)
	if err != nil {
		return wrap("create ticket", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return wrap("create ticket", err)
	}
	err = scanTicket(q.QueryRowContext(ctx, `SELECT `+ticketCols+` FROM tickets WHERE id = ?`, id), t)
	return wrap("reload ticket", err)
}

// GetByID retrieves a ticket by its ID.  It returns ErrNotFound if
// there is no matching row.
func (r *TicketRepo) GetByID(ctx context.Context, id uint64) (*model.Ticket, error) {
	return r.get(ctx, `SELECT `+ticketCols+` FROM tickets WHERE id = ?`, id)
}

// GetByIDForUpdate is GetByID with the ticket row locked until the
// enclosing transaction ends.
func (r *TicketRepo) GetByIDForUpdate(ctx context.Context, id uint64) (*model.Ticket, error) {
	return r.get(ctx, `SELECT `+ticketCols+` FROM tickets WHERE id = ? FOR UPDATE`, id)
}

// GetBySeat finds the ticket for a seat of a screening.
func (r *TicketRepo) GetBySeat(ctx context.Context, screeningID uint64, seat string) (*model.Ticket, error) {
	return r.get(ctx, `SELECT `+ticketCols+` FROM tickets WHERE screening_id = ? AND seat_number = ?`, screeningID, seat)
}

func (r *TicketRepo) get(ctx context.Context, query string, args ...any) (*model.Ticket, error) {
	var t model.Ticket
	if err := scanTicket(conn(ctx, r.db).QueryRowContext(ctx, query, args...), &t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, wrap("get ticket", err)
	}
	return &t, nil
}

// MarkSold flips an available ticket to sold.  It returns false when
// the ticket is missing or was already sold.
func (r *TicketRepo) MarkSold(ctx context.Context, id uint64, at time.Time, orderID *uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tickets SET sold = 1, sold_at = ?, order_id = ? WHERE id = ? AND sold = 0`,
		at.UTC(), orderID, id)
	return affected("sell ticket", res, err)
}

// MarkAvailable flips a sold ticket back to available and clears the
// sale stamp and order.  It returns false when the ticket is missing
// or was not sold.
func (r *TicketRepo) MarkAvailable(ctx context.Context, id uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE tickets SET sold = 0, sold_at = NULL, order_id = NULL WHERE id = ? AND sold = 1`, id)
	return affected("cancel ticket", res, err)
}

// Delete removes an unsold ticket.  Sold tickets are never matched.
func (r *TicketRepo) Delete(ctx context.Context, id uint64) (bool, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tickets WHERE id = ? AND sold = 0`, id)
	return affected("delete ticket", res, err)
}

// DeleteUnsoldByScreening removes every unsold ticket of a screening.
func (r *TicketRepo) DeleteUnsoldByScreening(ctx context.Context, screeningID uint64) (int64, error) {
	res, err := conn(ctx, r.db).ExecContext(ctx, `DELETE FROM tickets WHERE screening_id = ? AND sold = 0`, screeningID)
	if err != nil {
		return 0, wrap("delete screening tickets", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, wrap("delete screening tickets", err)
	}
	return n, nil
}

// CountSold returns the number of sold tickets of a screening.
func (r *TicketRepo) CountSold(ctx context.Context, screeningID uint64) (int, error) {
	var n int
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE screening_id = ? AND sold = 1`, screeningID).Scan(&n)
	if err != nil {
		return 0, wrap("count sold tickets", err)
	}
	return n, nil
}

// ListByScreening returns the tickets of a screening ordered by seat
// number.  A non-nil sold narrows the result to that state.
func (r *TicketRepo) ListByScreening(ctx context.Context, screeningID uint64, sold *bool) ([]model.Ticket, error) {
	query := `SELECT ` + ticketCols + ` FROM tickets WHERE screening_id = ?`
	args := []any{screeningID}
	if sold != nil {
		query += ` AND sold = ?`
		args = append(args, *sold)
	}
	rows, err := conn(ctx, r.db).QueryContext(ctx, query+` ORDER BY seat_number ASC`, args...)
	if err != nil {
		return nil, wrap("list tickets", err)
	}
	defer rows.Close()
	tickets := []model.Ticket{}
	for rows.Next() {
		var t model.Ticket
		if err := scanTicket(rows, &t); err != nil {
			return nil, wrap("list tickets", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list tickets", err)
	}
	return tickets, nil
}

func affected(op string, res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, wrap(op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, wrap(op, err)
	}
	return n > 0, nil
}
