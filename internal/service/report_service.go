package service

import (
	"context"
	"log/slog"

	"townsquare/internal/featureflags"
	"townsquare/internal/models"
	"townsquare/internal/repository"
)

// DefaultAutoHideThreshold is the report count that hides a post.
const DefaultAutoHideThreshold = 3

type ReportService struct {
	reportRepo    repository.ReportRepository
	postRepo      repository.PostRepository
	commentRepo   repository.CommentRepository
	flags         *featureflags.Manager
	hideThreshold int
}

type CreateReportInput struct {
	ReporterID   uint
	ReporterRole string
	PostID       *uint
	CommentID    *uint
	Reason       models.ReportReason
}

func NewReportService(
	reportRepo repository.ReportRepository,
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	flags *featureflags.Manager,
	hideThreshold int,
) *ReportService {
	if hideThreshold <= 0 {
		hideThreshold = DefaultAutoHideThreshold
	}
	return &ReportService{
		reportRepo:    reportRepo,
		postRepo:      postRepo,
		commentRepo:   commentRepo,
		flags:         flags,
		hideThreshold: hideThreshold,
	}
}

// CreateReport files a report against a post or a comment. Content the
// reporter cannot see is reported as not found. Reports against a published
// post count toward auto-hiding it.
func (s *ReportService) CreateReport(ctx context.Context, in CreateReportInput) (*models.Report, error) {
	if in.PostID == nil && in.CommentID == nil {
		return nil, models.NewValidationError("Either post_id or comment_id is required")
	}
	if !in.Reason.Valid() {
		return nil, models.NewValidationError("reason must be one of ABUSE, SPAM, FAKE, OFFENSIVE")
	}

	var post *models.Post
	if in.PostID != nil {
		p, err := s.visiblePost(ctx, *in.PostID, in)
		if err != nil {
			return nil, err
		}
		if p.AuthorID == in.ReporterID {
			return nil, models.NewValidationError("You cannot report your own post")
		}
		post = p
	}
	if in.CommentID != nil {
		comment, err := s.commentRepo.GetByID(ctx, *in.CommentID)
		if err != nil {
			return nil, err
		}
		if in.PostID != nil && comment.PostID != *in.PostID {
			return nil, models.NewValidationError("Comment belongs to a different post")
		}
		if post == nil {
			if _, err := s.visiblePost(ctx, comment.PostID, in); err != nil {
				if models.IsNotFound(err) {
					return nil, models.NewNotFoundError("Comment", *in.CommentID)
				}
				return nil, err
			}
		}
	}

	exists, err := s.reportRepo.ExistsForTarget(ctx, in.ReporterID, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, models.NewConflictError("You have already reported this content")
	}

	report := &models.Report{
		ReporterID: in.ReporterID,
		PostID:     in.PostID,
		CommentID:  in.CommentID,
		Reason:     in.Reason,
		Status:     models.ReportStatusPending,
	}
	if err := s.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}
	slog.InfoContext(ctx, "content reported",
		slog.Uint64("report_id", uint64(report.ID)),
		slog.Uint64("reporter_id", uint64(in.ReporterID)),
		slog.String("reason", string(in.Reason)),
	)

	if post != nil && in.CommentID == nil {
		if err := s.maybeAutoHide(ctx, post); err != nil {
			return nil, err
		}
	}
	return report, nil
}

func (s *ReportService) visiblePost(ctx context.Context, id uint, in CreateReportInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canView(post, in.ReporterID, in.ReporterRole) {
		return nil, models.NewNotFoundError("Post", id)
	}
	return post, nil
}

// maybeAutoHide hides a published post once it reaches the threshold.
// Posts awaiting review stay in the review queue.
func (s *ReportService) maybeAutoHide(ctx context.Context, post *models.Post) error {
	if !s.flags.Enabled(featureflags.ReportAutoHide, 0) {
		return nil
	}
	if post.Status != models.PostStatusPublished {
		return nil
	}

	count, err := s.reportRepo.CountForPost(ctx, post.ID)
	if err != nil {
		return err
	}
	if count < int64(s.hideThreshold) {
		return nil
	}

	if err := s.postRepo.UpdateStatus(ctx, post.ID, models.PostStatusHidden); err != nil {
		return err
	}
	slog.WarnContext(ctx, "post auto-hidden due to reports",
		slog.Uint64("post_id", uint64(post.ID)),
		slog.Int64("report_count", count),
	)
	return nil
}

// ListReports returns reports newest first along with the total count.
func (s *ReportService) ListReports(ctx context.Context, limit, offset int) ([]*models.Report, int64, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	reports, err := s.reportRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.reportRepo.Count(ctx)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

func (s *ReportService) DismissReport(ctx context.Context, id, adminID uint) error {
	if err := s.reportRepo.UpdateStatus(ctx, id, models.ReportStatusDismissed); err != nil {
		return err
	}
	slog.InfoContext(ctx, "report dismissed", slog.Uint64("report_id", uint64(id)), slog.Uint64("admin_id", uint64(adminID)))
	return nil
}
