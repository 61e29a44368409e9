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
	"github.com/xen-network/cms-api/internal/repository"
)

type mockEventRepo struct {
	events         []models.Event
	publishedCalls int
}

func (m *mockEventRepo) ListAll(ctx context.Context) ([]models.Event, error) {
	return m.events, nil
}

func (m *mockEventRepo) ListPublished(ctx context.Context) ([]models.Event, error) {
	m.publishedCalls++
	published := make([]models.Event, 0, len(m.events))
	for _, e := range m.events {
		if e.Published {
			published = append(published, e)
		}
	}
	return published, nil
}

func (m *mockEventRepo) FindByID(ctx context.Context, id string) (*models.Event, error) {
	for i := range m.events {
		if m.events[i].ID == id {
			return &m.events[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockEventRepo) Create(ctx context.Context, event *models.Event) error {
	event.ID = "generated"
	m.events = append(m.events, *event)
	return nil
}

func (m *mockEventRepo) UpdateFields(ctx context.Context, id string, patch repository.EventPatch) error {
	for i := range m.events {
		if m.events[i].ID == id {
			if patch.Published != nil {
				m.events[i].Published = *patch.Published
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockEventRepo) Delete(ctx context.Context, id string) error {
	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func sampleEvents() []models.Event {
	return []models.Event{
		{
			ID:        "e1",
			Title:     "XEN Summit",
			Location:  "Main Hall",
			StartsAt:  time.Date(2025, time.January, 24, 18, 0, 0, 0, time.UTC),
			Published: true,
		},
		{
			ID:        "e2",
			Title:     "Founders Meetup",
			Location:  "Annex",
			StartsAt:  time.Date(2025, time.March, 2, 10, 0, 0, 0, time.UTC),
			Published: true,
		},
		{
			ID:        "e3",
			Title:     "Internal Planning",
			Location:  "Office",
			StartsAt:  time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC),
			Published: false,
		},
	}
}

func TestPublicEventsDecoratedWithDisplayDate(t *testing.T) {
	repo := &mockEventRepo{events: sampleEvents()}
	svc := NewEventService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	page, pagination, err := svc.PublicList(context.Background(), EventListRequest{})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, pagination.TotalCount)

	assert.Equal(t, "XEN Summit", page[0].Title)
	assert.Equal(t, "24th Jan 2025", page[0].DisplayDate)
	assert.Equal(t, "2nd Mar 2025", page[1].DisplayDate)
}

func TestPublicEventsExcludeUnpublished(t *testing.T) {
	repo := &mockEventRepo{events: sampleEvents()}
	svc := NewEventService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	page, _, err := svc.PublicList(context.Background(), EventListRequest{Search: "internal"})
	require.NoError(t, err)
	assert.Empty(t, page)
}

func TestPublicEventsCachedBetweenCalls(t *testing.T) {
	repo := &mockEventRepo{events: sampleEvents()}
	cacheRepo := newMemoryCacheRepo()
	svc := NewEventService(repo, &mockAudit{}, testCache(cacheRepo), validator.New(), zap.NewNop())

	_, _, err := svc.PublicList(context.Background(), EventListRequest{})
	require.NoError(t, err)
	_, _, err = svc.PublicList(context.Background(), EventListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.publishedCalls)
}

func TestEventUpdateInvalidatesCache(t *testing.T) {
	repo := &mockEventRepo{events: sampleEvents()}
	cacheRepo := newMemoryCacheRepo()
	svc := NewEventService(repo, &mockAudit{}, testCache(cacheRepo), validator.New(), zap.NewNop())

	_, _, err := svc.PublicList(context.Background(), EventListRequest{})
	require.NoError(t, err)
	require.Contains(t, cacheRepo.entries, eventCacheKey)

	published := true
	_, err = svc.Update(context.Background(), "e3", UpdateEventRequest{Published: &published}, Actor{})
	require.NoError(t, err)
	assert.NotContains(t, cacheRepo.entries, eventCacheKey)

	page, _, err := svc.PublicList(context.Background(), EventListRequest{})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestEventCommunityFacet(t *testing.T) {
	events := sampleEvents()
	north := "north"
	events[0].Community = &north
	repo := &mockEventRepo{events: events}
	svc := NewEventService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	page, _, err := svc.List(context.Background(), EventListRequest{Community: "north"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "e1", page[0].ID)
}

func TestEventCreateRequiresTitleAndLocation(t *testing.T) {
	repo := &mockEventRepo{}
	svc := NewEventService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateEventRequest{Title: "No Location", StartsAt: time.Now()}, Actor{})
	require.Error(t, err)
	assert.Empty(t, repo.events)
}
