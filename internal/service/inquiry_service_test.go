package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
)

type mockInquiryRepo struct {
	inquiries []models.Inquiry
	createErr error
}

func (m *mockInquiryRepo) ListAll(ctx context.Context) ([]models.Inquiry, error) {
	return m.inquiries, nil
}

func (m *mockInquiryRepo) FindByID(ctx context.Context, id string) (*models.Inquiry, error) {
	for i := range m.inquiries {
		if m.inquiries[i].ID == id {
			return &m.inquiries[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockInquiryRepo) Create(ctx context.Context, inquiry *models.Inquiry) error {
	if m.createErr != nil {
		return m.createErr
	}
	inquiry.ID = "generated"
	if inquiry.Status == "" {
		inquiry.Status = models.InquiryNew
	}
	if inquiry.Source == "" {
		inquiry.Source = models.SourceContactForm
	}
	m.inquiries = append(m.inquiries, *inquiry)
	return nil
}

func (m *mockInquiryRepo) UpdateStatus(ctx context.Context, id string, status models.InquiryStatus, ts time.Time) error {
	for i := range m.inquiries {
		if m.inquiries[i].ID == id {
			m.inquiries[i].Status = status
			m.inquiries[i].StatusUpdatedAt = &ts
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockInquiryRepo) Delete(ctx context.Context, id string) error {
	for i := range m.inquiries {
		if m.inquiries[i].ID == id {
			m.inquiries = append(m.inquiries[:i], m.inquiries[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func TestSubmitInquiryPersistsAndAlerts(t *testing.T) {
	repo := &mockInquiryRepo{}
	sender := newCapturingSender()
	svc := NewInquiryService(repo, &mockAudit{}, testNotifier(t, sender), validator.New(), zap.NewNop())

	inquiry, err := svc.Submit(context.Background(), SubmitInquiryRequest{
		FirstName: "Jo",
		LastName:  "Doe",
		Email:     "jo@example.com",
		Message:   "I would like to join the north community.",
	})
	require.NoError(t, err)
	assert.Equal(t, models.InquiryNew, inquiry.Status)
	assert.Equal(t, models.SourceContactForm, inquiry.Source)
	assert.Equal(t, "general", inquiry.InquiryType)
	assert.Equal(t, "normal", inquiry.Priority)

	select {
	case n := <-sender.sent:
		assert.Equal(t, "admins@xen.network", n.To)
		assert.Contains(t, n.Body, "jo@example.com")
	case <-time.After(2 * time.Second):
		t.Fatal("admin alert was not dispatched")
	}
}

func TestSubmitInquiryRequiredFields(t *testing.T) {
	repo := &mockInquiryRepo{}
	svc := NewInquiryService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	cases := map[string]SubmitInquiryRequest{
		"missing first name": {LastName: "Doe", Email: "jo@example.com", Message: "hi"},
		"missing last name":  {FirstName: "Jo", Email: "jo@example.com", Message: "hi"},
		"missing email":      {FirstName: "Jo", LastName: "Doe", Message: "hi"},
		"bad email":          {FirstName: "Jo", LastName: "Doe", Email: "nope", Message: "hi"},
		"missing message":    {FirstName: "Jo", LastName: "Doe", Email: "jo@example.com"},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
	assert.Empty(t, repo.inquiries)
}

func TestSubmitInquiryWithoutNotifierStillPersists(t *testing.T) {
	repo := &mockInquiryRepo{}
	svc := NewInquiryService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Submit(context.Background(), SubmitInquiryRequest{
		FirstName: "Jo", LastName: "Doe", Email: "jo@example.com", Message: "hi",
	})
	require.NoError(t, err)
	assert.Len(t, repo.inquiries, 1)
}

func TestInquiryUpdateStatusValidatesEnum(t *testing.T) {
	repo := &mockInquiryRepo{inquiries: []models.Inquiry{{ID: "i1", Status: models.InquiryNew}}}
	svc := NewInquiryService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	err := svc.UpdateStatus(context.Background(), "i1", models.InquiryStatus("closed"), Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)

	require.NoError(t, svc.UpdateStatus(context.Background(), "i1", models.InquiryResolved, Actor{}))
	assert.Equal(t, models.InquiryResolved, repo.inquiries[0].Status)
	assert.NotNil(t, repo.inquiries[0].StatusUpdatedAt)
}

func TestInquiryListFacets(t *testing.T) {
	repo := &mockInquiryRepo{inquiries: []models.Inquiry{
		{ID: "i1", FirstName: "Jo", LastName: "Doe", Email: "jo@example.com", Status: models.InquiryNew, InquiryType: "general", Priority: "normal"},
		{ID: "i2", FirstName: "Sam", LastName: "Roe", Email: "sam@example.com", Status: models.InquiryResolved, InquiryType: "partnership", Priority: "high"},
	}}
	svc := NewInquiryService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	page, pagination, err := svc.List(context.Background(), InquiryListRequest{Status: "resolved"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "i2", page[0].ID)
	assert.Equal(t, 1, pagination.TotalCount)

	all, _, err := svc.List(context.Background(), InquiryListRequest{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
