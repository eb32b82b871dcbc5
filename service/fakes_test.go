package service

import (
	"context"
	"io"
	"slices"
	"sort"
	"time"

	"github.com/qitt/qitt-backend/events"
	"github.com/qitt/qitt-backend/models"
	"github.com/qitt/qitt-backend/repository"
	"github.com/qitt/qitt-backend/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type fakeMaterialRepo struct {
	materials []*models.Material

	listRecentCalls int
	listRecentErr   error
	topByLikesErr   error
	countSince      int64
	countSinceErr   error
}

func (f *fakeMaterialRepo) Create(m *models.Material) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	f.materials = append(f.materials, m)
	return nil
}

func (f *fakeMaterialRepo) GetByID(id uuid.UUID) (*models.Material, error) {
	for _, m := range f.materials {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMaterialRepo) Update(m *models.Material) error { return nil }

func (f *fakeMaterialRepo) List(limit, offset int) ([]*models.Material, error) {
	if offset >= len(f.materials) {
		return []*models.Material{}, nil
	}
	page := f.materials[offset:]
	if limit > 0 && limit < len(page) {
		page = page[:limit]
	}
	return page, nil
}

func (f *fakeMaterialRepo) ListRecent(limit int) ([]*models.Material, error) {
	f.listRecentCalls++
	if f.listRecentErr != nil {
		return nil, f.listRecentErr
	}
	if len(f.materials) > limit {
		return f.materials[:limit], nil
	}
	return f.materials, nil
}

func (f *fakeMaterialRepo) ByCriteria(criteria repository.SearchCriteria) ([]*models.Material, error) {
	var out []*models.Material
	for _, m := range f.materials {
		if criteria.CourseCode != "" && m.CourseCode != criteria.CourseCode {
			continue
		}
		if criteria.Department != "" && m.Department != criteria.Department {
			continue
		}
		if criteria.Level != "" && m.Level != criteria.Level {
			continue
		}
		if criteria.Type != "" && m.Type != criteria.Type {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeMaterialRepo) ByTag(tag string) ([]*models.Material, error) {
	var out []*models.Material
	for _, m := range f.materials {
		if slices.Contains(m.Tags, tag) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMaterialRepo) TopByLikes(limit int) ([]*models.Material, error) {
	if f.topByLikesErr != nil {
		return nil, f.topByLikesErr
	}
	sorted := make([]*models.Material, len(f.materials))
	copy(sorted, f.materials)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Likes > sorted[j].Likes })
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}
	return sorted, nil
}

func (f *fakeMaterialRepo) CountByUploaderSince(userID uuid.UUID, since time.Time) (int64, error) {
	return f.countSince, f.countSinceErr
}

func (f *fakeMaterialRepo) IncrementLikes(id uuid.UUID) error {
	m, err := f.GetByID(id)
	if err != nil {
		return err
	}
	m.Likes++
	return nil
}

func (f *fakeMaterialRepo) DecrementLikes(id uuid.UUID) error {
	m, err := f.GetByID(id)
	if err != nil {
		return err
	}
	if m.Likes > 0 {
		m.Likes--
	}
	return nil
}

func (f *fakeMaterialRepo) UpdateThumbnailURL(id uuid.UUID, url string) error {
	m, err := f.GetByID(id)
	if err != nil {
		return err
	}
	m.ThumbnailURL = url
	return nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (f *fakeUserRepo) Create(u *models.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) Update(u *models.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) List(limit, offset int) ([]*models.User, error) {
	var out []*models.User
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) GetByGoogleID(googleID string) (*models.User, error) {
	for _, u := range f.users {
		if u.GoogleID != "" && u.GoogleID == googleID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepo) AppendUpload(userID uuid.UUID, materialID string) error {
	u, ok := f.users[userID]
	if !ok {
		u = &models.User{
			Base:             models.Base{ID: userID},
			DailyUploadLimit: models.DefaultDailyUploadLimit,
			Uploads:          []string{},
			SavedMaterials:   []string{},
		}
		f.users[userID] = u
	}
	if slices.Contains(u.Uploads, materialID) {
		return nil
	}
	u.Uploads = append(u.Uploads, materialID)
	return nil
}

func (f *fakeUserRepo) AddSaved(userID uuid.UUID, materialID string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if slices.Contains(u.SavedMaterials, materialID) {
		return nil
	}
	u.SavedMaterials = append(u.SavedMaterials, materialID)
	return nil
}

func (f *fakeUserRepo) RemoveSaved(userID uuid.UUID, materialID string) error {
	u, ok := f.users[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	idx := slices.Index(u.SavedMaterials, materialID)
	if idx < 0 {
		return nil
	}
	u.SavedMaterials = slices.Delete(u.SavedMaterials, idx, idx+1)
	return nil
}

type fakeStore struct {
	uploads   map[string][]byte
	uploadErr error
	// progress percentages reported to Upload, in call order
	progressCalls []int
}

func newFakeStore() *fakeStore {
	return &fakeStore{uploads: make(map[string][]byte)}
}

func (f *fakeStore) Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string, progress storage.ProgressFunc) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.uploads[objectName] = data
	if progress != nil {
		for _, pct := range f.progressCalls {
			progress(pct)
		}
	}
	return nil
}

func (f *fakeStore) ResolveURL(ctx context.Context, objectName string) (string, error) {
	return "https://cdn.test/" + objectName, nil
}

func (f *fakeStore) Bucket() string { return "test-bucket" }

type fakePublisher struct {
	jobs []events.ThumbnailJob
	err  error
}

func (f *fakePublisher) PublishMaterialUploaded(ctx context.Context, job events.ThumbnailJob) error {
	if f.err != nil {
		return f.err
	}
	f.jobs = append(f.jobs, job)
	return nil
}

func (f *fakePublisher) Close() error { return nil }
