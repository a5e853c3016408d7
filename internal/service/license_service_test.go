package service

import (
	"context"
	"testing"
	"time"

	"github.com/iliyamo/cinema-box-office/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpiringLicenses(t *testing.T) {
	e := newEnv()
	date := func(m time.Month, d int) time.Time { return time.Date(2030, m, d, 0, 0, 0, 0, time.UTC) }
	e.db.licenses[1] = model.License{ID: 1, FilmTitle: "Today", EndDate: date(6, 1)}
	e.db.licenses[2] = model.License{ID: 2, FilmTitle: "Soon", EndDate: date(6, 11)}
	e.db.licenses[3] = model.License{ID: 3, FilmTitle: "Later", EndDate: date(7, 15)}
	e.db.licenses[4] = model.License{ID: 4, FilmTitle: "Gone", EndDate: date(5, 31)}

	list, err := e.licenses.Expiring(context.Background(), 30)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Today", list[0].FilmTitle)
	assert.Equal(t, 0, list[0].DaysLeft)
	assert.Equal(t, 10, list[1].DaysLeft)

	_, err = e.licenses.Expiring(context.Background(), -1)
	assert.ErrorIs(t, err, ErrValidation)
}
