package service

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/storescout/storescout/internal/domain"
	"github.com/storescout/storescout/internal/event"
	"github.com/storescout/storescout/internal/repository"
	apperrors "github.com/storescout/storescout/pkg/errors"
	pkgkafka "github.com/storescout/storescout/pkg/kafka"
)

// --- Mock repositories ---

type mockStoreRepository struct {
	mock.Mock
}

func (m *mockStoreRepository) Create(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockStoreRepository) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Store), args.Error(1)
}

func (m *mockStoreRepository) List(ctx context.Context, filter repository.StoreFilter) ([]domain.Store, int, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]domain.Store), args.Int(1), args.Error(2)
}

func (m *mockStoreRepository) Update(ctx context.Context, store *domain.Store) error {
	args := m.Called(ctx, store)
	return args.Error(0)
}

func (m *mockStoreRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockStoreRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *mockStoreRepository) RecomputeRating(ctx context.Context, storeID string) (*domain.RatingSummary, error) {
	args := m.Called(ctx, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RatingSummary), args.Error(1)
}

type mockReviewRepository struct {
	mock.Mock
}

func (m *mockReviewRepository) Create(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) FindByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Review, error) {
	args := m.Called(ctx, userID, storeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}

func (m *mockReviewRepository) Update(ctx context.Context, review *domain.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *mockReviewRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockReviewRepository) ListByStore(ctx context.Context, storeID string, approvedOnly bool, page, perPage int) ([]domain.Review, int, error) {
	args := m.Called(ctx, storeID, approvedOnly, page, perPage)
	return args.Get(0).([]domain.Review), args.Int(1), args.Error(2)
}

func (m *mockReviewRepository) IncrementHelpfulVotes(ctx context.Context, id string) (int, error) {
	args := m.Called(ctx, id)
	return args.Int(0), args.Error(1)
}

// --- Mock purchase verifier ---

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) HasPurchased(ctx context.Context, userID, storeID string) (bool, error) {
	args := m.Called(ctx, userID, storeID)
	return args.Bool(0), args.Error(1)
}

// --- In-memory fakes for aggregate lifecycle tests ---

// fakeStore holds one store row and recomputes its aggregates from the
// sibling fakeReviews, mirroring the SQL UPDATE the real repository runs.
type fakeStore struct {
	mu      sync.Mutex
	store   domain.Store
	reviews *fakeReviews
}

func (f *fakeStore) Create(ctx context.Context, s *domain.Store) error { return nil }

func (f *fakeStore) GetByID(ctx context.Context, id string) (*domain.Store, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if id != f.store.ID {
		return nil, apperrors.ErrNotFound
	}
	s := f.store
	return &s, nil
}

func (f *fakeStore) GetBySlug(ctx context.Context, slug string) (*domain.Store, error) {
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) List(ctx context.Context, filter repository.StoreFilter) ([]domain.Store, int, error) {
	return []domain.Store{f.store}, 1, nil
}

func (f *fakeStore) Update(ctx context.Context, s *domain.Store) error { return nil }

func (f *fakeStore) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeStore) SlugExists(ctx context.Context, slug string) (bool, error) { return false, nil }

func (f *fakeStore) RecomputeRating(ctx context.Context, storeID string) (*domain.RatingSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if storeID != f.store.ID {
		return nil, apperrors.ErrNotFound
	}
	var ratings []int
	for _, rv := range f.reviews.byID {
		if rv.StoreID == storeID && rv.IsApproved {
			ratings = append(ratings, rv.Rating)
		}
	}
	summary := domain.ComputeRatingSummary(ratings)
	f.store.AverageRating = summary.AverageRating
	f.store.TotalReviews = summary.TotalReviews
	return &summary, nil
}

type fakeReviews struct {
	byID map[string]*domain.Review
}

func newFakeReviews() *fakeReviews {
	return &fakeReviews{byID: make(map[string]*domain.Review)}
}

func (f *fakeReviews) Create(ctx context.Context, rv *domain.Review) error {
	for _, existing := range f.byID {
		if existing.UserID == rv.UserID && existing.StoreID == rv.StoreID {
			return apperrors.AlreadyExists("review", "user_id/store_id", rv.UserID+"/"+rv.StoreID)
		}
	}
	cp := *rv
	f.byID[rv.ID] = &cp
	return nil
}

func (f *fakeReviews) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	rv, ok := f.byID[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *rv
	return &cp, nil
}

func (f *fakeReviews) FindByUserAndStore(ctx context.Context, userID, storeID string) (*domain.Review, error) {
	for _, rv := range f.byID {
		if rv.UserID == userID && rv.StoreID == storeID {
			cp := *rv
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeReviews) Update(ctx context.Context, rv *domain.Review) error {
	current, ok := f.byID[rv.ID]
	if !ok {
		return apperrors.NotFound("review", rv.ID)
	}
	if current.Version != rv.Version {
		return apperrors.Conflict("review was modified concurrently, retry with fresh data")
	}
	cp := *rv
	cp.Version++
	f.byID[rv.ID] = &cp
	rv.Version++
	return nil
}

func (f *fakeReviews) Delete(ctx context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return apperrors.NotFound("review", id)
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeReviews) ListByStore(ctx context.Context, storeID string, approvedOnly bool, page, perPage int) ([]domain.Review, int, error) {
	var out []domain.Review
	for _, rv := range f.byID {
		if rv.StoreID == storeID && (!approvedOnly || rv.IsApproved) {
			out = append(out, *rv)
		}
	}
	return out, len(out), nil
}

func (f *fakeReviews) IncrementHelpfulVotes(ctx context.Context, id string) (int, error) {
	rv, ok := f.byID[id]
	if !ok {
		return 0, apperrors.NotFound("review", id)
	}
	rv.HelpfulVotes++
	return rv.HelpfulVotes, nil
}

// --- Test helpers ---

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newTestProducer creates an event producer backed by a Kafka producer that
// fails silently in tests (no real broker); publishing is fire-and-forget.
func newTestProducer() *event.Producer {
	logger := newTestLogger()
	kafkaCfg := pkgkafka.DefaultProducerConfig([]string{"localhost:9092"})
	return event.NewProducer(pkgkafka.NewProducer(kafkaCfg, logger), logger)
}

func strPtr(s string) *string { return &s }
func intPtr(n int) *int       { return &n }
