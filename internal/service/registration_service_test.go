package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/repository"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
	"github.com/xen-network/cms-api/pkg/storage"
)

type mockRegistrationRepo struct {
	registrations []models.Registration
	listErr       error
	statusUpdates map[string]models.RegistrationStatus
}

func (m *mockRegistrationRepo) ListAll(ctx context.Context) ([]models.Registration, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.registrations, nil
}

func (m *mockRegistrationRepo) FindByID(ctx context.Context, id string) (*models.Registration, error) {
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			return &m.registrations[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockRegistrationRepo) UpdateStatus(ctx context.Context, id string, status models.RegistrationStatus, ts time.Time) error {
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			if m.statusUpdates == nil {
				m.statusUpdates = make(map[string]models.RegistrationStatus)
			}
			m.statusUpdates[id] = status
			m.registrations[i].Status = status
			m.registrations[i].StatusUpdatedAt = &ts
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockRegistrationRepo) UpdateFields(ctx context.Context, id string, patch repository.RegistrationPatch) error {
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockRegistrationRepo) Delete(ctx context.Context, id string) error {
	for i := range m.registrations {
		if m.registrations[i].ID == id {
			m.registrations = append(m.registrations[:i], m.registrations[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type mockExportStorage struct {
	savedName string
	savedData []byte
	saveErr   error
}

func (m *mockExportStorage) Save(filename string, data []byte) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	m.savedName = filename
	m.savedData = data
	return filename, nil
}

func strPtr(s string) *string        { return &s }
func floatPtr(f float64) *float64    { return &f }
func timePtr(t time.Time) *time.Time { return &t }

func sampleRegistrations() []models.Registration {
	eventDate := time.Date(2025, time.January, 24, 0, 0, 0, 0, time.UTC)
	return []models.Registration{
		{
			ID:                        "r1",
			RegistrationType:          "company",
			Season:                    "2025",
			CompanyName:               "Acme Corp",
			CompanyEmail:              "hello@acme.test",
			CompanyPhone:              "123",
			CompanyAddress:            strPtr("1 Main St"),
			CompanyType:               "startup",
			CompanySize:               "10-50",
			Industry:                  "software",
			Community:                 "north",
			XenLevel:                  "gold",
			ClientStatus:              "active",
			TicketType:                "standard",
			PrimaryContactName:        "Jo Doe",
			PrimaryContactEmail:       "jo@acme.test",
			PrimaryContactPhone:       "555",
			PrimaryContactDesignation: "CEO",
			Personnel: models.PersonnelList{
				{Name: "Jo Doe", Email: "jo@acme.test", Phone: "555", Designation: "CEO", IsAttending: true},
				{Name: "Pat Lee", Email: "pat@acme.test", Phone: "556", Designation: "CTO", IsAttending: true},
				{Name: "Skip Me", Email: "skip@acme.test", Phone: "557", Designation: "Ops", IsAttending: false},
			},
			EventTitle:       strPtr("XEN Summit"),
			EventDate:        timePtr(eventDate),
			EventLocation:    strPtr("Main Hall"),
			TotalCost:        floatPtr(250),
			BaseAmount:       floatPtr(300),
			DiscountAmount:   floatPtr(50),
			Status:           models.RegistrationConfirmed,
			RegistrationDate: time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			ID:                  "r2",
			RegistrationType:    "company",
			Season:              "2025",
			CompanyName:         "Borealis",
			CompanyEmail:        "info@borealis.test",
			CompanyPhone:        "456",
			Industry:            "hardware",
			Community:           "south",
			TicketType:          "vip",
			PrimaryContactName:  "Sam Roe",
			PrimaryContactEmail: "sam@borealis.test",
			IsFreeRegistration:  true,
			Status:              models.RegistrationPending,
			RegistrationDate:    time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func newRegistrationService(repo *mockRegistrationRepo, store *mockExportStorage) *RegistrationService {
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	return NewRegistrationService(repo, &mockAudit{}, store, signer, nil, zap.NewNop(), "/api/v1")
}

func TestRegistrationListFiltersAndPaginates(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	svc := newRegistrationService(repo, &mockExportStorage{})

	page, pagination, err := svc.List(context.Background(), RegistrationListRequest{
		Search: "acme", Page: 1, PageSize: 10,
	})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "Acme Corp", page[0].CompanyName)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.TotalPages)
	assert.False(t, pagination.Clamped)
}

func TestRegistrationListClampsPage(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	svc := newRegistrationService(repo, &mockExportStorage{})

	_, pagination, err := svc.List(context.Background(), RegistrationListRequest{Page: 99, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.True(t, pagination.Clamped)
}

func TestRegistrationUpdateStatusValidatesEnum(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	svc := newRegistrationService(repo, &mockExportStorage{})

	err := svc.UpdateStatus(context.Background(), "r1", models.RegistrationStatus("approved"), Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusUpdates)

	require.NoError(t, svc.UpdateStatus(context.Background(), "r1", models.RegistrationCancelled, Actor{}))
	assert.Equal(t, models.RegistrationCancelled, repo.statusUpdates["r1"])
}

func TestExportCSVHeaderOrderAndCells(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	store := &mockExportStorage{}
	svc := newRegistrationService(repo, store)

	result, err := svc.Export(context.Background(), RegistrationListRequest{}, ExportCSV, Actor{UserID: "u1"})
	require.NoError(t, err)

	wantName := fmt.Sprintf("registrations_export_%s.csv", time.Now().UTC().Format("2006-01-02"))
	assert.Equal(t, wantName, result.FileName)
	assert.Equal(t, wantName, store.savedName)
	assert.Contains(t, result.URL, "/api/v1/admin/registrations/export/")
	assert.NotEmpty(t, result.Token)

	records, err := csv.NewReader(bytes.NewReader(store.savedData)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, registrationExportHeaders, records[0])
	require.Len(t, records[0], 35)

	row := records[1]
	assert.Equal(t, "r1", row[0])
	assert.Equal(t, "1 Main St", row[6])
	// Only attending personnel, joined with "; ".
	assert.Equal(t, "2", row[18])
	assert.Equal(t, "Jo Doe; Pat Lee", row[19])
	assert.Equal(t, "jo@acme.test; pat@acme.test", row[20])
	assert.Equal(t, "Jan 24, 2025", row[24])
	assert.Equal(t, "250.00", row[26])
	assert.Equal(t, "No", row[34])

	sparse := records[2]
	// Absent optionals render as empty strings, absent amounts as "0".
	assert.Equal(t, "", sparse[6])
	assert.Equal(t, "", sparse[23])
	assert.Equal(t, "", sparse[24])
	assert.Equal(t, "0", sparse[26])
	assert.Equal(t, "0", sparse[27])
	assert.Equal(t, "0", sparse[28])
	assert.Equal(t, "Yes", sparse[34])
}

func TestExportAppliesFiltersWithoutPagination(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	store := &mockExportStorage{}
	svc := newRegistrationService(repo, store)

	// Page/PageSize from the list view must not truncate the export.
	_, err := svc.Export(context.Background(), RegistrationListRequest{Status: "pending", Page: 7, PageSize: 1}, ExportCSV, Actor{})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(store.savedData)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "r2", records[1][0])
}

func TestExportEmptyCollection(t *testing.T) {
	repo := &mockRegistrationRepo{}
	store := &mockExportStorage{}
	svc := newRegistrationService(repo, store)

	_, err := svc.Export(context.Background(), RegistrationListRequest{}, ExportCSV, Actor{})
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(store.savedData)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, registrationExportHeaders, records[0])
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	svc := newRegistrationService(repo, &mockExportStorage{})

	_, err := svc.Export(context.Background(), RegistrationListRequest{}, ExportFormat("xlsx"), Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestExportSignedTokenRoundTrips(t *testing.T) {
	repo := &mockRegistrationRepo{registrations: sampleRegistrations()}
	store := &mockExportStorage{}
	signer := storage.NewSignedURLSigner("test-secret", time.Hour)
	svc := NewRegistrationService(repo, &mockAudit{}, store, signer, nil, zap.NewNop(), "/api/v1")

	result, err := svc.Export(context.Background(), RegistrationListRequest{}, ExportCSV, Actor{})
	require.NoError(t, err)

	_, relPath, _, err := signer.Parse(result.Token, false)
	require.NoError(t, err)
	assert.Equal(t, store.savedName, relPath)
}
