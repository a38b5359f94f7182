package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dropvault/dropvault/internal/common"
	"github.com/dropvault/dropvault/internal/dbx"
	"github.com/dropvault/dropvault/internal/server/config"
	"github.com/dropvault/dropvault/internal/server/models"
	filesrepo "github.com/dropvault/dropvault/internal/server/repositories/files"
	usersrepo "github.com/dropvault/dropvault/internal/server/repositories/users"
)

// --- shared test helpers ---

func newSQLMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		SecretKey:                    "test-secret",
		SessionTokenValidityDuration: 24 * time.Hour,
		ShareTokenValidityDuration:   7 * 24 * time.Hour,
	}
}

// memUsersRepo is an in-memory users.Repository.
type memUsersRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User
}

func newMemUsersRepo() *memUsersRepo {
	return &memUsersRepo{users: map[string]*models.User{}}
}

func (m *memUsersRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, common.ErrorConflict
		}
	}
	m.seq++
	user.ID = fmt.Sprintf("u-%d", m.seq)
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memUsersRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsersRepo) FindByUsernameOrEmail(ctx context.Context, username, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Username == username || u.Email == email {
			return u, nil
		}
	}
	return nil, common.ErrorNotFound
}

// memFilesRepo is an in-memory files.Repository.
type memFilesRepo struct {
	mu    sync.Mutex
	seq   int
	files map[string]*models.File
}

func newMemFilesRepo() *memFilesRepo {
	return &memFilesRepo{files: map[string]*models.File{}}
}

func (m *memFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	file.ID = fmt.Sprintf("f-%d", m.seq)
	file.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.files[file.ID] = file
	return file, nil
}

func (m *memFilesRepo) ListByOwner(ctx context.Context, userID string) ([]*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*models.File
	for _, f := range m.files {
		if f.UserID == userID {
			result = append(result, f)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreatedAt.After(result[j].CreatedAt) })
	return result, nil
}

func (m *memFilesRepo) GetByID(ctx context.Context, id string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	copied := *f
	return &copied, nil
}

func (m *memFilesRepo) SetShare(ctx context.Context, fileID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return common.ErrorNotFound
	}
	f.IsShared = true
	f.ShareToken = token
	return nil
}

func (m *memFilesRepo) ClearShare(ctx context.Context, fileID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok {
		return common.ErrorNotFound
	}
	f.IsShared = false
	f.ShareToken = ""
	return nil
}

func (m *memFilesRepo) GetShared(ctx context.Context, fileID, token string) (*models.File, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[fileID]
	if !ok || !f.IsShared || f.ShareToken != token {
		return nil, common.ErrorNotFound
	}
	copied := *f
	return &copied, nil
}

// fakeRepoManager vends the in-memory repositories regardless of the DBTX.
type fakeRepoManager struct {
	users *memUsersRepo
	files *memFilesRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{users: newMemUsersRepo(), files: newMemFilesRepo()}
}

func (f *fakeRepoManager) RunMigrations(ctx context.Context, db *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository              { return f.users }
func (f *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository              { return f.files }

// fakeBlobStore records puts and hands out deterministic URLs.
type fakeBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "http://blobstore/test/" + key, nil
}

func (f *fakeBlobStore) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "http://blobstore/test/" + key + "?signed=1", nil
}
