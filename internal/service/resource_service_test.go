package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xen-network/cms-api/internal/models"
	"github.com/xen-network/cms-api/internal/repository"
	appErrors "github.com/xen-network/cms-api/pkg/errors"
)

type memoryCacheRepo struct {
	entries map[string][]byte
	gets    int
	sets    int
	deletes int
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{entries: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.gets++
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deletes++
	delete(m.entries, pattern)
	return nil
}

func testCache(repo CacheRepository) *CacheService {
	return NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)
}

type mockResourceRepo struct {
	resources      []models.Resource
	publishedCalls int
	listAllCalls   int
}

func (m *mockResourceRepo) ListAll(ctx context.Context) ([]models.Resource, error) {
	m.listAllCalls++
	return m.resources, nil
}

func (m *mockResourceRepo) ListPublished(ctx context.Context) ([]models.Resource, error) {
	m.publishedCalls++
	published := make([]models.Resource, 0, len(m.resources))
	for _, r := range m.resources {
		if r.Status == models.ResourcePublished {
			published = append(published, r)
		}
	}
	return published, nil
}

func (m *mockResourceRepo) FindByID(ctx context.Context, id string) (*models.Resource, error) {
	for i := range m.resources {
		if m.resources[i].ID == id {
			return &m.resources[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockResourceRepo) Create(ctx context.Context, resource *models.Resource) error {
	resource.ID = "generated"
	m.resources = append(m.resources, *resource)
	return nil
}

func (m *mockResourceRepo) UpdateStatus(ctx context.Context, id string, status models.ResourceStatus, ts time.Time) error {
	for i := range m.resources {
		if m.resources[i].ID == id {
			m.resources[i].Status = status
			m.resources[i].StatusUpdatedAt = &ts
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockResourceRepo) UpdateFields(ctx context.Context, id string, patch repository.ResourcePatch) error {
	for i := range m.resources {
		if m.resources[i].ID == id {
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *mockResourceRepo) Delete(ctx context.Context, id string) error {
	for i := range m.resources {
		if m.resources[i].ID == id {
			m.resources = append(m.resources[:i], m.resources[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func sampleResources() []models.Resource {
	return []models.Resource{
		{ID: "res1", Title: "Onboarding Guide", Category: "guides", Type: "pdf", Status: models.ResourcePublished},
		{ID: "res2", Title: "Budget Template", Category: "templates", Type: "spreadsheet", Status: models.ResourcePublished},
		{ID: "res3", Title: "Unreleased Notes", Category: "guides", Type: "article", Status: models.ResourceDraft},
	}
}

func TestPublicListServesOnlyPublished(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	svc := NewResourceService(repo, &mockAudit{}, testCache(newMemoryCacheRepo()), validator.New(), zap.NewNop())

	page, pagination, err := svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)
	require.Len(t, page, 2)
	for _, r := range page {
		assert.Equal(t, models.ResourcePublished, r.Status)
	}
	assert.Equal(t, 2, pagination.TotalCount)
}

func TestPublicListStatusParamCannotLeakDrafts(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	svc := NewResourceService(repo, &mockAudit{}, testCache(newMemoryCacheRepo()), validator.New(), zap.NewNop())

	page, _, err := svc.PublicList(context.Background(), ResourceListRequest{Status: "draft"})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestPublicListHitsCacheOnSecondCall(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	cacheRepo := newMemoryCacheRepo()
	svc := NewResourceService(repo, &mockAudit{}, testCache(cacheRepo), validator.New(), zap.NewNop())

	_, _, err := svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)
	page, _, err := svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.publishedCalls)
	assert.Equal(t, 1, cacheRepo.sets)
	assert.Len(t, page, 2)
}

func TestPublicListWorksWithCachingDisabled(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	svc := NewResourceService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	_, _, err := svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)
	_, _, err = svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, repo.publishedCalls)
}

func TestResourceStatusChangeInvalidatesCache(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	cacheRepo := newMemoryCacheRepo()
	svc := NewResourceService(repo, &mockAudit{}, testCache(cacheRepo), validator.New(), zap.NewNop())

	_, _, err := svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)
	require.Contains(t, cacheRepo.entries, resourceCacheKey)

	require.NoError(t, svc.UpdateStatus(context.Background(), "res3", models.ResourcePublished, Actor{}))
	assert.NotContains(t, cacheRepo.entries, resourceCacheKey)

	page, _, err := svc.PublicList(context.Background(), ResourceListRequest{})
	require.NoError(t, err)
	assert.Len(t, page, 3)
}

func TestResourceUpdateStatusValidatesEnum(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	svc := NewResourceService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	err := svc.UpdateStatus(context.Background(), "res1", models.ResourceStatus("hidden"), Actor{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidStatus.Code, appErrors.FromError(err).Code)
}

func TestResourceCreateStartsAsDraft(t *testing.T) {
	repo := &mockResourceRepo{}
	audit := &mockAudit{}
	svc := NewResourceService(repo, audit, nil, validator.New(), zap.NewNop())

	resource, err := svc.Create(context.Background(), CreateResourceRequest{
		Title:    "New Guide",
		Category: "guides",
		Type:     "pdf",
	}, Actor{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, models.ResourceDraft, resource.Status)
	require.Len(t, audit.logs, 1)
	assert.Equal(t, "resources", audit.logs[0].Resource)
}

func TestAdminListIncludesDrafts(t *testing.T) {
	repo := &mockResourceRepo{resources: sampleResources()}
	svc := NewResourceService(repo, &mockAudit{}, nil, validator.New(), zap.NewNop())

	page, _, err := svc.List(context.Background(), ResourceListRequest{Status: "draft"})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "res3", page[0].ID)
}
