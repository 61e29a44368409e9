package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xen-network/cms-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

func TestRegistrationListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "company_name", "status", "personnel", "registration_date"}).
		AddRow("r1", "Acme Corp", "confirmed", []byte(`[{"name":"Jo","email":"jo@acme.test","phone":"","designation":"","isAttending":true}]`), now).
		AddRow("r2", "Borealis", "pending", []byte(`[]`), now.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM registrations ORDER BY registration_date DESC").
		WillReturnRows(rows)

	registrations, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, registrations, 2)
	assert.Equal(t, "Acme Corp", registrations[0].CompanyName)
	require.Len(t, registrations[0].Personnel, 1)
	assert.True(t, registrations[0].Personnel[0].IsAttending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpdateStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET status = $2, status_updated_at = $3, updated_at = $3 WHERE id = $1")).
		WithArgs("r1", models.RegistrationConfirmed, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), "r1", models.RegistrationConfirmed, ts)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationUpdateStatusMissingRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec("UPDATE registrations SET status").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "gone", models.RegistrationCancelled, time.Now())
	assert.True(t, errors.Is(err, sql.ErrNoRows))
}

func TestRegistrationUpdateFieldsBuildsPartialSet(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	name := "Acme Prime"
	community := "north"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE registrations SET updated_at = $2, company_name = $3, community = $4 WHERE id = $1")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateFields(context.Background(), "r1", RegistrationPatch{
		CompanyName: &name,
		Community:   &community,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegistrationDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRegistrationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM registrations WHERE id = $1")).
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "r1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
