package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xen-network/cms-api/internal/models"
)

func TestInquiryCreateAppliesDefaults(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	mock.ExpectExec("INSERT INTO inquiries").WillReturnResult(sqlmock.NewResult(1, 1))

	inquiry := &models.Inquiry{
		FirstName: "Jo",
		LastName:  "Doe",
		Email:     "jo@example.com",
		Message:   "Hello",
	}
	err := repo.Create(context.Background(), inquiry)
	require.NoError(t, err)

	assert.NotEmpty(t, inquiry.ID)
	assert.Equal(t, models.InquiryNew, inquiry.Status)
	assert.Equal(t, models.SourceContactForm, inquiry.Source)
	assert.False(t, inquiry.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryUpdateStatusStampsTimestamp(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	ts := time.Now().UTC()
	mock.ExpectExec("UPDATE inquiries SET status").
		WithArgs("i1", models.InquiryResolved, ts).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "i1", models.InquiryResolved, ts))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInquiryListAll(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewInquiryRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "message", "status", "source", "created_at"}).
		AddRow("i1", "Jo", "Doe", "jo@example.com", "Hello", "new", "contact_form", now)
	mock.ExpectQuery("SELECT (.+) FROM inquiries ORDER BY created_at DESC").WillReturnRows(rows)

	inquiries, err := repo.ListAll(context.Background())
	require.NoError(t, err)
	require.Len(t, inquiries, 1)
	assert.Equal(t, models.InquiryNew, inquiries[0].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
