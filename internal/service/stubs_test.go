package service

import (
	"context"
	"errors"
	"testing"

	"townsquare/internal/feed"
	"townsquare/internal/models"
	"townsquare/internal/moderation"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	feedPageFn        func(context.Context, feed.Query) ([]*models.Post, error)
	createFn          func(context.Context, *models.Post) error
	getByIDFn         func(context.Context, uint) (*models.Post, error)
	updateFn          func(context.Context, *models.Post) error
	updateStatusFn    func(context.Context, uint, models.PostStatus) error
	listByAuthorFn    func(context.Context, uint, int, int) ([]*models.Post, error)
	countByStatusFn   func(context.Context, ...models.PostStatus) (int64, error)
	getLikedPostIDsFn func(context.Context, uint, []uint) ([]uint, error)
	likeFn            func(context.Context, uint, uint) error
	unlikeFn          func(context.Context, uint, uint) error
}

func (s *postRepoStub) FeedPage(ctx context.Context, q feed.Query) ([]*models.Post, error) {
	return s.feedPageFn(ctx, q)
}
func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) UpdateStatus(ctx context.Context, id uint, status models.PostStatus) error {
	return s.updateStatusFn(ctx, id, status)
}
func (s *postRepoStub) ListByAuthor(ctx context.Context, authorID uint, limit, offset int) ([]*models.Post, error) {
	return s.listByAuthorFn(ctx, authorID, limit, offset)
}
func (s *postRepoStub) CountByStatus(ctx context.Context, statuses ...models.PostStatus) (int64, error) {
	return s.countByStatusFn(ctx, statuses...)
}
func (s *postRepoStub) GetLikedPostIDs(ctx context.Context, userID uint, postIDs []uint) ([]uint, error) {
	return s.getLikedPostIDsFn(ctx, userID, postIDs)
}
func (s *postRepoStub) Like(ctx context.Context, userID, postID uint) error {
	return s.likeFn(ctx, userID, postID)
}
func (s *postRepoStub) Unlike(ctx context.Context, userID, postID uint) error {
	return s.unlikeFn(ctx, userID, postID)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		feedPageFn:        func(_ context.Context, _ feed.Query) ([]*models.Post, error) { return nil, nil },
		createFn:          func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Post, error) { return nil, models.NewNotFoundError("Post", id) },
		updateFn:          func(_ context.Context, _ *models.Post) error { return nil },
		updateStatusFn:    func(_ context.Context, _ uint, _ models.PostStatus) error { return nil },
		listByAuthorFn:    func(_ context.Context, _ uint, _, _ int) ([]*models.Post, error) { return nil, nil },
		countByStatusFn:   func(_ context.Context, _ ...models.PostStatus) (int64, error) { return 0, nil },
		getLikedPostIDsFn: func(_ context.Context, _ uint, _ []uint) ([]uint, error) { return nil, nil },
		likeFn:            func(_ context.Context, _, _ uint) error { return nil },
		unlikeFn:          func(_ context.Context, _, _ uint) error { return nil },
	}
}

// commentRepoStub is a stub for repository.CommentRepository.
type commentRepoStub struct {
	createFn     func(context.Context, *models.Comment) error
	getByIDFn    func(context.Context, uint) (*models.Comment, error)
	listByPostFn func(context.Context, uint, int, int) ([]*models.Comment, error)
	softDeleteFn func(context.Context, uint) error
}

func (s *commentRepoStub) Create(ctx context.Context, c *models.Comment) error {
	return s.createFn(ctx, c)
}
func (s *commentRepoStub) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	return s.getByIDFn(ctx, id)
}
func (s *commentRepoStub) ListByPost(ctx context.Context, postID uint, limit, offset int) ([]*models.Comment, error) {
	return s.listByPostFn(ctx, postID, limit, offset)
}
func (s *commentRepoStub) SoftDelete(ctx context.Context, id uint) error {
	return s.softDeleteFn(ctx, id)
}

func noopCommentRepo() *commentRepoStub {
	return &commentRepoStub{
		createFn:     func(_ context.Context, _ *models.Comment) error { return nil },
		getByIDFn:    func(_ context.Context, id uint) (*models.Comment, error) { return nil, models.NewNotFoundError("Comment", id) },
		listByPostFn: func(_ context.Context, _ uint, _, _ int) ([]*models.Comment, error) { return nil, nil },
		softDeleteFn: func(_ context.Context, _ uint) error { return nil },
	}
}

// wordSource is a fixed moderation.BlocklistSource.
type wordSource []models.BlockedWord

func (w wordSource) ListBlockedWords(context.Context) ([]models.BlockedWord, error) {
	return w, nil
}

func testGate() *moderation.Gate {
	return moderation.NewGate(moderation.SourceBlocklist{Source: wordSource{
		{ID: 1, Word: "spamword", Severity: models.SeverityMedium},
		{ID: 2, Word: "bannedword", Severity: models.SeverityHigh},
		{ID: 3, Word: "darn", Severity: models.SeverityLow},
	}})
}

func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}

var errStoreDown = errors.New("store down")

type failingSource struct{}

func (failingSource) ListBlockedWords(context.Context) ([]models.BlockedWord, error) {
	return nil, errStoreDown
}

func failingGate() *moderation.Gate {
	return moderation.NewGate(moderation.SourceBlocklist{Source: failingSource{}})
}

// reportRepoStub is a stub for repository.ReportRepository.
type reportRepoStub struct {
	createFn          func(context.Context, *models.Report) error
	getByIDFn         func(context.Context, uint) (*models.Report, error)
	existsForTargetFn func(context.Context, uint, *uint, *uint) (bool, error)
	countForPostFn    func(context.Context, uint) (int64, error)
	listFn            func(context.Context, int, int) ([]*models.Report, error)
	countFn           func(context.Context) (int64, error)
	updateStatusFn    func(context.Context, uint, models.ReportStatus) error
}

func (s *reportRepoStub) Create(ctx context.Context, r *models.Report) error {
	return s.createFn(ctx, r)
}
func (s *reportRepoStub) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	return s.getByIDFn(ctx, id)
}
func (s *reportRepoStub) ExistsForTarget(ctx context.Context, reporterID uint, postID, commentID *uint) (bool, error) {
	return s.existsForTargetFn(ctx, reporterID, postID, commentID)
}
func (s *reportRepoStub) CountForPost(ctx context.Context, postID uint) (int64, error) {
	return s.countForPostFn(ctx, postID)
}
func (s *reportRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *reportRepoStub) Count(ctx context.Context) (int64, error) {
	return s.countFn(ctx)
}
func (s *reportRepoStub) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error {
	return s.updateStatusFn(ctx, id, status)
}

func noopReportRepo() *reportRepoStub {
	return &reportRepoStub{
		createFn:          func(_ context.Context, _ *models.Report) error { return nil },
		getByIDFn:         func(_ context.Context, id uint) (*models.Report, error) { return nil, models.NewNotFoundError("Report", id) },
		existsForTargetFn: func(_ context.Context, _ uint, _, _ *uint) (bool, error) { return false, nil },
		countForPostFn:    func(_ context.Context, _ uint) (int64, error) { return 0, nil },
		listFn:            func(_ context.Context, _, _ int) ([]*models.Report, error) { return nil, nil },
		countFn:           func(_ context.Context) (int64, error) { return 0, nil },
		updateStatusFn:    func(_ context.Context, _ uint, _ models.ReportStatus) error { return nil },
	}
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn       func(context.Context, uint) (*models.User, error)
	getByEmailFn    func(context.Context, string) (*models.User, error)
	getByUsernameFn func(context.Context, string) (*models.User, error)
	createFn        func(context.Context, *models.User) error
	updateRoleFn    func(context.Context, uint, string) error
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}
func (s *userRepoStub) UpdateRole(ctx context.Context, id uint, role string) error {
	return s.updateRoleFn(ctx, id, role)
}

// blockedWordRepoStub is an in-memory repository.BlockedWordRepository.
type blockedWordRepoStub struct {
	words  []models.BlockedWord
	nextID uint
}

func (s *blockedWordRepoStub) ListBlockedWords(context.Context) ([]models.BlockedWord, error) {
	return append([]models.BlockedWord(nil), s.words...), nil
}
func (s *blockedWordRepoStub) Create(_ context.Context, w *models.BlockedWord) error {
	s.nextID++
	w.ID = s.nextID
	s.words = append(s.words, *w)
	return nil
}
func (s *blockedWordRepoStub) Delete(_ context.Context, id uint) error {
	for i, w := range s.words {
		if w.ID == id {
			s.words = append(s.words[:i], s.words[i+1:]...)
			return nil
		}
	}
	return models.NewNotFoundError("Blocked word", id)
}
