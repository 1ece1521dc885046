package repository

import (
	"context"
	"errors"

	"townsquare/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ReportRepository defines persistence operations for reports.
type ReportRepository interface {
	Create(ctx context.Context, report *models.Report) error
	GetByID(ctx context.Context, id uint) (*models.Report, error)
	ExistsForTarget(ctx context.Context, reporterID uint, postID, commentID *uint) (bool, error)
	CountForPost(ctx context.Context, postID uint) (int64, error)
	List(ctx context.Context, limit, offset int) ([]*models.Report, error)
	Count(ctx context.Context) (int64, error)
	UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error
}

type reportRepository struct {
	db *gorm.DB
}

// NewReportRepository returns a new ReportRepository implementation.
func NewReportRepository(db *gorm.DB) ReportRepository {
	return &reportRepository{db: db}
}

func (r *reportRepository) Create(ctx context.Context, report *models.Report) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(report).Error
}

func (r *reportRepository) GetByID(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := r.db.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Report", id)
		}
		return nil, err
	}
	return &report, nil
}

func (r *reportRepository) ExistsForTarget(ctx context.Context, reporterID uint, postID, commentID *uint) (bool, error) {
	db := r.db.WithContext(ctx).Model(&models.Report{}).Where("reporter_id = ?", reporterID)
	if postID != nil {
		db = db.Where("post_id = ?", *postID)
	} else {
		db = db.Where("post_id IS NULL")
	}
	if commentID != nil {
		db = db.Where("comment_id = ?", *commentID)
	} else {
		db = db.Where("comment_id IS NULL")
	}
	var count int64
	err := db.Count(&count).Error
	return count > 0, err
}

// CountForPost counts reports against the post itself, not its comments.
func (r *reportRepository) CountForPost(ctx context.Context, postID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).
		Where("post_id = ? AND comment_id IS NULL", postID).
		Count(&count).Error
	return count, err
}

// List returns reports newest first with reporter and target preloaded.
func (r *reportRepository) List(ctx context.Context, limit, offset int) ([]*models.Report, error) {
	var reports []*models.Report
	err := r.db.WithContext(ctx).
		Preload("Reporter", publicUser).
		Preload("Post").
		Preload("Comment").
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&reports).Error
	return reports, err
}

func (r *reportRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Report{}).Count(&count).Error
	return count, err
}

func (r *reportRepository) UpdateStatus(ctx context.Context, id uint, status models.ReportStatus) error {
	result := r.db.WithContext(ctx).Model(&models.Report{}).Where("id = ?", id).Update("status", status)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Report", id)
	}
	return nil
}
