package service

import (
	"context"
	"testing"
	"time"

	"github.com/qitt/qitt-backend/cache"
	"github.com/qitt/qitt-backend/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

func newTestLibraryService(users *fakeUserRepo, materials *fakeMaterialRepo) (LibraryService, *cache.LibraryCache) {
	libCache := cache.NewLibraryCache(cache.NewMemoryKV())
	return NewLibraryService(users, materials, libCache, zap.NewNop()), libCache
}

func seedMaterial(t *testing.T, repo *fakeMaterialRepo, m *models.Material) *models.Material {
	t.Helper()
	require.NoError(t, repo.Create(m))
	return m
}

func TestSavedMaterialsResolvesIDs(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	m1 := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301"})
	m2 := seedMaterial(t, materials, &models.Material{CourseCode: "MAT 137"})

	user := &models.User{SavedMaterials: []string{m1.ID.String(), m2.ID.String()}}
	require.NoError(t, users.Create(user))

	svc, _ := newTestLibraryService(users, materials)
	saved, err := svc.SavedMaterials(context.Background(), user.ID)
	require.NoError(t, err)
	require.Len(t, saved, 2)
	assert.Equal(t, "CSC 301", saved[0].CourseCode)
}

func TestSavedMaterialsDropsDanglingIDs(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	m1 := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301"})

	user := &models.User{SavedMaterials: []string{m1.ID.String(), uuid.NewString(), "not-a-uuid"}}
	require.NoError(t, users.Create(user))

	svc, _ := newTestLibraryService(users, materials)
	saved, err := svc.SavedMaterials(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestSavedMaterialsUnknownUserIsEmpty(t *testing.T) {
	svc, _ := newTestLibraryService(newFakeUserRepo(), &fakeMaterialRepo{})

	saved, err := svc.SavedMaterials(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, saved)
}

func TestSavedMaterialsServedFromCache(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	userID := uuid.New()

	svc, libCache := newTestLibraryService(users, materials)
	libCache.Set(context.Background(), userID.String(), cache.CategorySavedMaterials,
		[]*models.Material{{CourseCode: "PHY 151"}})

	saved, err := svc.SavedMaterials(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "PHY 151", saved[0].CourseCode)
}

func TestAddToSavedRefreshesList(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	m := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301"})

	user := &models.User{SavedMaterials: []string{}}
	require.NoError(t, users.Create(user))

	svc, _ := newTestLibraryService(users, materials)
	ctx := context.Background()
	require.NoError(t, svc.AddToSaved(ctx, user.ID, m.ID.String()))

	saved, err := svc.SavedMaterials(ctx, user.ID)
	require.NoError(t, err)
	assert.Len(t, saved, 1)
}

func TestRemoveFromSavedIsIdempotent(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	m := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301"})

	user := &models.User{SavedMaterials: []string{m.ID.String()}}
	require.NoError(t, users.Create(user))

	svc, _ := newTestLibraryService(users, materials)
	ctx := context.Background()
	require.NoError(t, svc.RemoveFromSaved(ctx, user.ID, m.ID.String()))
	require.NoError(t, svc.RemoveFromSaved(ctx, user.ID, m.ID.String()))

	assert.Empty(t, users.users[user.ID].SavedMaterials)
}

func TestRemoveFromSavedUpdatesCachedList(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	m1 := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301"})
	m2 := seedMaterial(t, materials, &models.Material{CourseCode: "MAT 137"})

	user := &models.User{SavedMaterials: []string{m1.ID.String(), m2.ID.String()}}
	require.NoError(t, users.Create(user))

	svc, libCache := newTestLibraryService(users, materials)
	ctx := context.Background()
	libCache.Set(ctx, user.ID.String(), cache.CategorySavedMaterials, []*models.Material{m1, m2})

	require.NoError(t, svc.RemoveFromSaved(ctx, user.ID, m1.ID.String()))

	var cached []*models.Material
	require.True(t, libCache.Get(ctx, user.ID.String(), cache.CategorySavedMaterials, &cached))
	require.Len(t, cached, 1)
	assert.Equal(t, m2.ID, cached[0].ID)
}

func uploadedAt(ts time.Time) datatypes.JSONType[models.FileMetadata] {
	return datatypes.NewJSONType(models.FileMetadata{UploadedAt: ts.Format(time.RFC3339)})
}

func TestUserUploadsCountsTodayOnly(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	now := time.Now()
	today := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301", Metadata: uploadedAt(now)})
	yesterday := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301", Metadata: uploadedAt(now.Add(-26 * time.Hour))})
	noMeta := seedMaterial(t, materials, &models.Material{CourseCode: "CSC 301"})

	user := &models.User{
		DailyUploadLimit: 5,
		Uploads:          []string{today.ID.String(), yesterday.ID.String(), noMeta.ID.String()},
	}
	require.NoError(t, users.Create(user))

	svc, _ := newTestLibraryService(users, materials)
	view, err := svc.UserUploads(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Len(t, view.Materials, 3)
	assert.Equal(t, 1, view.UploadsToday)
	assert.Equal(t, 5, view.DailyLimit)
}

func TestUserUploadsUnknownUserDefaults(t *testing.T) {
	svc, _ := newTestLibraryService(newFakeUserRepo(), &fakeMaterialRepo{})

	view, err := svc.UserUploads(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Empty(t, view.Materials)
	assert.Zero(t, view.UploadsToday)
	assert.Equal(t, models.DefaultDailyUploadLimit, view.DailyLimit)
}

func TestStats(t *testing.T) {
	svc, _ := newTestLibraryService(newFakeUserRepo(), &fakeMaterialRepo{})

	stats := svc.Stats([]*models.Material{
		{Likes: 10, IsApproved: true},
		{Likes: 5},
		{Likes: 0, IsApproved: true},
	})
	assert.Equal(t, 3, stats.TotalUploads)
	assert.Equal(t, int64(15), stats.TotalLikes)
	assert.Equal(t, 2, stats.ApprovedCount)
	assert.Equal(t, 1, stats.PendingCount)
}

func TestQuotaHelpers(t *testing.T) {
	svc, _ := newTestLibraryService(newFakeUserRepo(), &fakeMaterialRepo{})

	assert.True(t, svc.CanUploadToday(9, 10))
	assert.False(t, svc.CanUploadToday(10, 10))
	assert.Equal(t, 1, svc.RemainingUploads(9, 10))
	assert.Equal(t, 0, svc.RemainingUploads(12, 10))
}

func TestResetDropsCachedEntries(t *testing.T) {
	users := newFakeUserRepo()
	materials := &fakeMaterialRepo{}
	userID := uuid.New()

	svc, libCache := newTestLibraryService(users, materials)
	ctx := context.Background()
	libCache.Set(ctx, userID.String(), cache.CategorySavedMaterials, []*models.Material{{CourseCode: "CSC 301"}})

	svc.Reset(ctx, userID)

	var cached []*models.Material
	assert.False(t, libCache.Get(ctx, userID.String(), cache.CategorySavedMaterials, &cached))
}
