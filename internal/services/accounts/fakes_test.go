package accounts_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Aline875/back/internal/lib/jwt"
	"github.com/Aline875/back/internal/lib/password"
	"github.com/Aline875/back/internal/models"
	"github.com/Aline875/back/internal/services/accounts"
	"github.com/Aline875/back/internal/storage"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// memRepo — хранилище в памяти с теми же гарантиями уникальности, что и Postgres.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*models.User
	clock  time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{users: make(map[int64]*models.User), clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (r *memRepo) tick() time.Time {
	r.clock = r.clock.Add(time.Second)
	return r.clock
}

func (r *memRepo) conflict(selfID int64, username, email string) error {
	for _, u := range r.users {
		if u.ID == selfID {
			continue
		}
		if strings.EqualFold(u.Email, email) {
			return storage.ErrEmailExists
		}
		if strings.EqualFold(u.Username, username) {
			return storage.ErrUsernameExists
		}
	}
	return nil
}

func (r *memRepo) InsertUser(_ context.Context, user models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.conflict(0, user.Username, user.Email); err != nil {
		return nil, err
	}
	r.nextID++
	user.ID = r.nextID
	user.CreatedAt = r.tick()
	user.UpdatedAt = user.CreatedAt
	stored := user
	r.users[user.ID] = &stored
	return &user, nil
}

func (r *memRepo) find(match func(*models.User) bool) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("memRepo: %w", storage.ErrUserNotFound)
}

func (r *memRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *memRepo) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return r.find(func(u *models.User) bool { return strings.EqualFold(u.Username, username) })
}

func (r *memRepo) GetUser(_ context.Context, id int64) (*models.User, error) {
	return r.find(func(u *models.User) bool { return u.ID == id })
}

func (r *memRepo) UpdateProfile(_ context.Context, id int64, username, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	if err := r.conflict(id, username, email); err != nil {
		return nil, err
	}
	u.Username = username
	u.Email = email
	u.UpdatedAt = r.tick()
	cp := *u
	return &cp, nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id int64, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = r.tick()
	return nil
}

func (r *memRepo) DeleteUser(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memRepo) ListUsers(_ context.Context) ([]*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	res := make([]*models.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID > res[j].ID
		}
		return res[i].CreatedAt.After(res[j].CreatedAt)
	})
	return res, nil
}

func (r *memRepo) stored(t *testing.T, id int64) models.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	require.True(t, ok, "user %d not stored", id)
	return *u
}

// UserRepoMock — мок хранилища для проверки обработки ошибок.
type UserRepoMock struct {
	mock.Mock
}

func (m *UserRepoMock) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *UserRepoMock) InsertUser(ctx context.Context, user models.User) (*models.User, error) {
	return m.user(m.Called(ctx, user))
}

func (m *UserRepoMock) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(ctx, email))
}

func (m *UserRepoMock) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(ctx, username))
}

func (m *UserRepoMock) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return m.user(m.Called(ctx, id))
}

func (m *UserRepoMock) UpdateProfile(ctx context.Context, id int64, username, email string) (*models.User, error) {
	return m.user(m.Called(ctx, id, username, email))
}

func (m *UserRepoMock) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	return m.Called(ctx, id, passwordHash).Error(0)
}

func (m *UserRepoMock) DeleteUser(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *UserRepoMock) ListUsers(ctx context.Context) ([]*models.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.User), args.Error(1)
}

// countingHasher считает вызовы Hash и Verify.
type countingHasher struct {
	*password.Hasher
	mu       sync.Mutex
	hashes   int
	verifies int
}

func (h *countingHasher) Hash(plain string) (string, error) {
	h.mu.Lock()
	h.hashes++
	h.mu.Unlock()
	return h.Hasher.Hash(plain)
}

func (h *countingHasher) hashCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.hashes
}

func (h *countingHasher) Verify(plain, hashed string) (bool, error) {
	h.mu.Lock()
	h.verifies++
	h.mu.Unlock()
	return h.Hasher.Verify(plain, hashed)
}

func (h *countingHasher) verifyCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.verifies
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.AccountEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, event models.AccountEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []models.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	res := make([]models.EventType, 0, len(p.events))
	for _, e := range p.events {
		res = append(res, e.Type)
	}
	return res
}

type recordingMetrics struct {
	mu         sync.Mutex
	operations map[string]int
	hashings   int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{operations: make(map[string]int)}
}

func (m *recordingMetrics) ObserveOperation(operation, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.operations[operation+"/"+result]++
}

func (m *recordingMetrics) ObserveHashing(time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hashings++
}

func (m *recordingMetrics) count(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.operations[key]
}

type failingHasher struct{}

func (failingHasher) Hash(string) (string, error) { return "", errBoom }

func (failingHasher) Verify(string, string) (bool, error) { return false, errBoom }

// racingRepo один раз вызывает hook после чтения пользователя по id,
// но до возврата результата.
type racingRepo struct {
	*memRepo
	hookMu sync.Mutex
	hook   func()
}

func (r *racingRepo) onNextGetUser(hook func()) {
	r.hookMu.Lock()
	defer r.hookMu.Unlock()
	r.hook = hook
}

func (r *racingRepo) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := r.memRepo.GetUser(ctx, id)

	r.hookMu.Lock()
	hook := r.hook
	r.hook = nil
	r.hookMu.Unlock()
	if hook != nil {
		hook()
	}
	return user, err
}

var errBoom = errors.New("connection reset")

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMaker(t *testing.T) *jwt.MakerImpl {
	t.Helper()
	maker, err := jwt.NewJWTMaker(testSecret)
	require.NoError(t, err)
	return maker
}

func newService(t *testing.T, repo accounts.UserRepository, hasher accounts.Hasher, opts ...accounts.Option) *accounts.Service {
	t.Helper()
	svc, err := accounts.NewService(discardLogger(), repo, hasher, newTestMaker(t), opts...)
	require.NoError(t, err)
	return svc
}

func newTestHasher() *countingHasher {
	return &countingHasher{Hasher: password.NewHasher(bcrypt.MinCost)}
}
