package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/cinema-box-office/internal/repository"
)

// Error kinds.  Every error returned by this package matches exactly
// one of them with errors.Is; handlers map kinds to transport status
// codes and show the message verbatim.
var (
	ErrValidation    = errors.New("validation error")
	ErrRuleViolation = errors.New("business rule violation")
	ErrNotFound      = errors.New("not found")
	ErrStorage       = errors.New("storage failure")
)

// kindError is an error that belongs to a kind.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// Business rules.  Each one is also an ErrRuleViolation.
var (
	ErrHallOverlap             = rule("hall is already occupied")
	ErrStartInPast             = rule("start time is in the past")
	ErrScreeningStarted        = rule("screening has already started")
	ErrScreeningHasSoldTickets = rule("screening has sold tickets")
	ErrSeatSold                = rule("seat is already sold")
	ErrSeatExists              = rule("seat already exists")
	ErrTicketAlreadySold       = rule("ticket is already sold")
	ErrTicketNotSold           = rule("ticket is not sold")
	ErrTicketSoldDelete        = rule("sold ticket cannot be deleted")
	ErrDuplicateTitle          = rule("film title already exists")
	ErrFilmHasFutureScreenings = rule("film has scheduled screenings")
	ErrFilmHasHistory          = rule("film has past screenings")
	ErrUnknownReference        = rule("referenced record does not exist")
)

func rule(msg string) error { return &kindError{kind: ErrRuleViolation, msg: msg} }

// violation returns an error matching sentinel whose message describes
// the conflicting entity.
func violation(sentinel error, format string, args ...any) error {
	return &kindError{kind: sentinel, msg: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// storage classifies an error coming out of a store.  Errors already
// carrying a kind pass through untouched so rule violations raised
// inside a transaction keep their identity.
func storage(op string, err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range []error{ErrValidation, ErrRuleViolation, ErrNotFound, ErrStorage} {
		if errors.Is(err, kind) {
			return err
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

func isMissing(err error) bool { return errors.Is(err, repository.ErrNotFound) }

func isDuplicate(err error) bool { return errors.Is(err, repository.ErrDuplicate) }
