package service

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const (
	minFilmDuration = 1
	maxFilmDuration = 300
	maxTitleLen     = 255
)

// FilmService maintains the film catalogue.
type FilmService struct {
	tx         Transactor
	films      FilmStore
	screenings ScreeningStore
	licenses   LicenseStore
	clock      clockwork.Clock
	log        logrus.FieldLogger
}

// NewFilmService panics when a required store is missing.
func NewFilmService(d Deps) *FilmService {
	if d.Tx == nil || d.Films == nil || d.Screenings == nil || d.Licenses == nil {
		panic("service: NewFilmService requires Tx, Films, Screenings and Licenses")
	}
	d = d.withDefaults()
	return &FilmService{tx: d.Tx, films: d.Films, screenings: d.Screenings, licenses: d.Licenses, clock: d.Clock, log: d.Log}
}

type CreateFilmInput struct {
	LicenseID       *uint64
	Title           string
	DurationMinutes int
	Description     string
}

// UpdateFilmInput carries the fields to change; nil fields are kept.
type UpdateFilmInput struct {
	LicenseID       *uint64
	Title           *string
	DurationMinutes *int
	Description     *string
}

func checkTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", invalid("film title must not be empty")
	}
	if utf8.RuneCountInString(title) > maxTitleLen {
		return "", invalid("film title must be at most %d characters", maxTitleLen)
	}
	return title, nil
}

func checkDuration(minutes int) error {
	if minutes < minFilmDuration || minutes > maxFilmDuration {
		return invalid("film duration must be between %d and %d minutes, got %d", minFilmDuration, maxFilmDuration, minutes)
	}
	return nil
}

func (s *FilmService) checkLicense(ctx context.Context, id *uint64) error {
	if id == nil {
		return nil
	}
	if *id == 0 {
		return invalid("license id must be a positive integer")
	}
	if _, err := s.licenses.GetByID(ctx, *id); err != nil {
		if isMissing(err) {
			return violation(ErrUnknownReference, "license %d not found", *id)
		}
		return storage("get license", err)
	}
	return nil
}

// checkTitleFree rejects title when another film already uses it.
func (s *FilmService) checkTitleFree(ctx context.Context, title string, self uint64) error {
	other, err := s.films.FindByTitle(ctx, title)
	switch {
	case isMissing(err):
		return nil
	case err != nil:
		return storage("find film by title", err)
	case other.ID != self:
		return violation(ErrDuplicateTitle, "film %q already exists (id %d)", other.Title, other.ID)
	}
	return nil
}

// Create adds a film to the catalogue.
func (s *FilmService) Create(ctx context.Context, in CreateFilmInput) (*model.Film, error) {
	title, err := checkTitle(in.Title)
	if err != nil {
		return nil, err
	}
	if err := checkDuration(in.DurationMinutes); err != nil {
		return nil, err
	}
	f := &model.Film{
		LicenseID:       in.LicenseID,
		Title:           title,
		DurationMinutes: in.DurationMinutes,
		Description:     strings.TrimSpace(in.Description),
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.checkLicense(ctx, f.LicenseID); err != nil {
			return err
		}
		if err := s.checkTitleFree(ctx, title, 0); err != nil {
			return err
		}
		if err := s.films.Create(ctx, f); err != nil {
			if isDuplicate(err) {
				return violation(ErrDuplicateTitle, "film %q already exists", title)
			}
			return storage("create film", err)
		}
		return nil
	})
	if err != nil {
		return nil, storage("create film", err)
	}
	s.log.WithFields(logrus.Fields{"film_id": f.ID, "title": f.Title}).Info("film created")
	return f, nil
}

// Get returns a film or an ErrNotFound error.
func (s *FilmService) Get(ctx context.Context, id uint64) (*model.Film, error) {
	f, err := s.films.GetByID(ctx, id)
	if isMissing(err) {
		return nil, notFound("film %d not found", id)
	}
	if err != nil {
		return nil, storage("get film", err)
	}
	return f, nil
}

// List returns films ordered by title.  activeOnly keeps films with at
// least one upcoming screening.
func (s *FilmService) List(ctx context.Context, activeOnly bool) ([]model.Film, error) {
	films, err := s.films.List(ctx, activeOnly, s.clock.Now())
	if err != nil {
		return nil, storage("list films", err)
	}
	return films, nil
}

// Update changes a film.  It returns nil, nil when the film does not
// exist.  A new running time must not make any screening of the film
// collide with its neighbours in the hall, including screenings that
// are running or over, since their end is derived from the duration.
func (s *FilmService) Update(ctx context.Context, id uint64, in UpdateFilmInput) (*model.Film, error) {
	var title string
	if in.Title != nil {
		t, err := checkTitle(*in.Title)
		if err != nil {
			return nil, err
		}
		title = t
	}
	if in.DurationMinutes != nil {
		if err := checkDuration(*in.DurationMinutes); err != nil {
			return nil, err
		}
	}

	var out *model.Film
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		f, err := s.films.GetByIDForUpdate(ctx, id)
		if isMissing(err) {
			return nil
		}
		if err != nil {
			return storage("get film", err)
		}
		if in.LicenseID != nil {
			if err := s.checkLicense(ctx, in.LicenseID); err != nil {
				return err
			}
			f.LicenseID = in.LicenseID
		}
		if in.Title != nil {
			if err := s.checkTitleFree(ctx, title, f.ID); err != nil {
				return err
			}
			f.Title = title
		}
		if in.Description != nil {
			f.Description = strings.TrimSpace(*in.Description)
		}
		if in.DurationMinutes != nil && *in.DurationMinutes != f.DurationMinutes {
			if err := s.checkRescheduled(ctx, f, *in.DurationMinutes); err != nil {
				return err
			}
			f.DurationMinutes = *in.DurationMinutes
		}
		if err := s.films.Update(ctx, f); err != nil {
			if isDuplicate(err) {
				return violation(ErrDuplicateTitle, "film %q already exists", f.Title)
			}
			return storage("update film", err)
		}
		out = f
		return nil
	})
	if err != nil {
		return nil, storage("update film", err)
	}
	if out != nil {
		s.log.WithField("film_id", out.ID).Info("film updated")
	}
	return out, nil
}

// checkRescheduled verifies that every screening of f still fits its
// hall when the film runs for minutes.
func (s *FilmService) checkRescheduled(ctx context.Context, f *model.Film, minutes int) error {
	shows, err := s.screenings.ListByFilm(ctx, f.ID)
	if err != nil {
		return storage("list film screenings", err)
	}
	halls := map[string][]model.Screening{}
	for _, sc := range shows {
		key := strings.ToLower(strings.TrimSpace(sc.Hall))
		if _, ok := halls[key]; ok {
			continue
		}
		existing, err := s.screenings.ListByHallForUpdate(ctx, sc.Hall)
		if err != nil {
			return storage("list hall screenings", err)
		}
		for i := range existing {
			if existing[i].FilmID == f.ID {
				existing[i].FilmDuration = minutes
			}
		}
		halls[key] = existing
	}
	for _, sc := range shows {
		hall := halls[strings.ToLower(strings.TrimSpace(sc.Hall))]
		others := make([]model.Screening, 0, len(hall))
		for _, o := range hall {
			if o.ID != sc.ID {
				others = append(others, o)
			}
		}
		end := sc.StartsAt.Add(time.Duration(minutes) * time.Minute)
		if c, ok := FirstOverlap(sc.Hall, sc.StartsAt, end, others); ok {
			return violation(ErrHallOverlap,
				"changing the duration of %q to %d minutes makes screening %d overlap screening %d in hall %q",
				f.Title, minutes, sc.ID, c.ID, sc.Hall)
		}
	}
	return nil
}

// Delete removes a film.  It returns false, nil when the film does not
// exist and refuses while any screening still references it.
func (s *FilmService) Delete(ctx context.Context, id uint64) (bool, error) {
	var deleted bool
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.films.GetByIDForUpdate(ctx, id); err != nil {
			if isMissing(err) {
				return nil
			}
			return storage("get film", err)
		}
		future, total, err := s.screenings.CountByFilm(ctx, id, s.clock.Now())
		if err != nil {
			return storage("count film screenings", err)
		}
		if future > 0 {
			return violation(ErrFilmHasFutureScreenings, "cannot delete film %d: %d screenings are scheduled", id, future)
		}
		if total > 0 {
			return violation(ErrFilmHasHistory, "cannot delete film %d: %d past screenings reference it", id, total)
		}
		deleted, err = s.films.Delete(ctx, id)
		return storage("delete film", err)
	})
	if err != nil {
		return false, storage("delete film", err)
	}
	if deleted {
		s.log.WithField("film_id", id).Info("film deleted")
	}
	return deleted, nil
}
