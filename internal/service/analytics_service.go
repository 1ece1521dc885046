package service

import (
	"context"

	"townsquare/internal/models"
	"townsquare/internal/repository"
)

const recentReportsLimit = 5

// SafetyOverview aggregates moderation counters for the admin dashboard.
type SafetyOverview struct {
	TotalPosts   int64 `json:"total_posts"`
	HiddenPosts  int64 `json:"hidden_posts"`
	PendingPosts int64 `json:"pending_posts"`
	TotalReports int64 `json:"total_reports"`
}

type SafetyStats struct {
	Overview      SafetyOverview   `json:"overview"`
	RecentReports []*models.Report `json:"recent_reports"`
}

type AnalyticsService struct {
	postRepo   repository.PostRepository
	reportRepo repository.ReportRepository
}

func NewAnalyticsService(postRepo repository.PostRepository, reportRepo repository.ReportRepository) *AnalyticsService {
	return &AnalyticsService{postRepo: postRepo, reportRepo: reportRepo}
}

func (s *AnalyticsService) SafetyStats(ctx context.Context) (*SafetyStats, error) {
	var (
		stats SafetyStats
		err   error
	)
	if stats.Overview.TotalPosts, err = s.postRepo.CountByStatus(ctx); err != nil {
		return nil, err
	}
	if stats.Overview.HiddenPosts, err = s.postRepo.CountByStatus(ctx, models.PostStatusHidden); err != nil {
		return nil, err
	}
	if stats.Overview.PendingPosts, err = s.postRepo.CountByStatus(ctx, models.PostStatusPendingReview); err != nil {
		return nil, err
	}
	if stats.Overview.TotalReports, err = s.reportRepo.Count(ctx); err != nil {
		return nil, err
	}
	if stats.RecentReports, err = s.reportRepo.List(ctx, recentReportsLimit, 0); err != nil {
		return nil, err
	}
	if stats.RecentReports == nil {
		stats.RecentReports = []*models.Report{}
	}
	return &stats, nil
}
