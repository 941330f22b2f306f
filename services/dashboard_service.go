package services

import (
	"context"
	"fmt"

	"dharmaverse/models"
)

// DashboardService aggregates counters for the admin dashboard.
type DashboardService struct {
	videos     VideoService
	streams    LiveStreamService
	challenges ChallengeService
	purchases  PurchaseService
	activity   ActivityService
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(videos VideoService, streams LiveStreamService, challenges ChallengeService,
	purchases PurchaseService, activity ActivityService) *DashboardService {
	return &DashboardService{
		videos:     videos,
		streams:    streams,
		challenges: challenges,
		purchases:  purchases,
		activity:   activity,
	}
}

// Stats collects the dashboard counters and the five most recent activities.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	var (
		stats models.DashboardStats
		err   error
	)

	if stats.Videos, err = s.videos.Stats(ctx); err != nil {
		return nil, fmt.Errorf("video stats: %w", err)
	}
	if stats.LiveNow, stats.PendingStreams, err = s.streams.Counts(ctx); err != nil {
		return nil, fmt.Errorf("live stream stats: %w", err)
	}
	if stats.Challenges, stats.Submissions, err = s.challenges.Counts(ctx); err != nil {
		return nil, fmt.Errorf("challenge stats: %w", err)
	}
	if stats.Purchases, err = s.purchases.Count(ctx); err != nil {
		return nil, fmt.Errorf("purchase stats: %w", err)
	}
	if stats.RecentActivity, _, err = s.activity.List(ctx, 1, 5); err != nil {
		return nil, fmt.Errorf("recent activity: %w", err)
	}

	return &stats, nil
}
