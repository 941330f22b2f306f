package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"dharmaverse/models"
	"dharmaverse/utils"
)

var (
	ErrLiveStreamNotFound = errors.New("live stream not found")
	ErrLiveStreamEnded    = errors.New("live stream already ended")
	ErrInvalidStreamKey   = errors.New("invalid stream key")
)

// LiveStreamService manages broadcast sessions.
type LiveStreamService interface {
	Start(ctx context.Context, req models.StartLiveStreamRequest) (*models.LiveStream, string, error)
	Get(ctx context.Context, id string) (*models.LiveStream, error)
	ListLive(ctx context.Context) ([]*models.LiveStream, error)
	End(ctx context.Context, id, streamKey string) (*models.LiveStream, error)
	Approve(ctx context.Context, id string) (*models.LiveStream, error)
	ExpireStale(ctx context.Context, startedBefore time.Time) (int64, error)
	Counts(ctx context.Context) (live int, pending int, err error)
}

type liveStreamService struct {
	db        SQLExecutor
	moderator *Moderator
}

// NewLiveStreamService creates a LiveStreamService.
func NewLiveStreamService(db SQLExecutor, moderator *Moderator) LiveStreamService {
	return &liveStreamService{db: db, moderator: moderator}
}

const liveStreamColumns = `id, title, description, category, streamer_name, channel_name, is_live, viewers,
	start_time, end_time, is_approved, created_at`

func (s *liveStreamService) Start(ctx context.Context, req models.StartLiveStreamRequest) (*models.LiveStream, string, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.StreamerName = strings.TrimSpace(req.StreamerName)
	req.ChannelName = strings.TrimSpace(req.ChannelName)

	switch {
	case req.Title == "":
		return nil, "", invalid("title is required")
	case req.StreamerName == "":
		return nil, "", invalid("streamer_name is required")
	case req.ChannelName == "":
		return nil, "", invalid("channel_name is required")
	}

	category, ok := s.moderator.NormalizeCategory(req.Category)
	if !ok {
		return nil, "", invalid("category must be one of: %s", strings.Join(s.moderator.Categories(), ", "))
	}
	if !s.moderator.IsSpiritual(req.Title, req.Description) {
		return nil, "", ErrNotSpiritual
	}

	id, err := utils.GenerateID("live")
	if err != nil {
		return nil, "", err
	}
	key, err := utils.GenerateStreamKey()
	if err != nil {
		return nil, "", err
	}
	hash, err := utils.HashSecret(key)
	if err != nil {
		return nil, "", fmt.Errorf("hash stream key: %w", err)
	}

	now := nowDB()
	stream := &models.LiveStream{
		ID:           id,
		Title:        req.Title,
		Description:  strings.TrimSpace(req.Description),
		Category:     category,
		StreamerName: req.StreamerName,
		ChannelName:  req.ChannelName,
		IsLive:       true,
		StartTime:    now,
		CreatedAt:    now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO live_streams (id, title, description, category, stream_key_hash, streamer_name, channel_name,
			is_live, viewers, start_time, end_time, is_approved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, 0, ?, '', 0, ?, ?)`,
		stream.ID, stream.Title, stream.Description, stream.Category, hash, stream.StreamerName,
		stream.ChannelName, now, now, now,
	)
	if err != nil {
		return nil, "", fmt.Errorf("insert live stream: %w", err)
	}

	return stream, key, nil
}

func (s *liveStreamService) Get(ctx context.Context, id string) (*models.LiveStream, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+liveStreamColumns+` FROM live_streams WHERE id = ?`, id)
	stream, err := scanLiveStream(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLiveStreamNotFound
	}
	return stream, err
}

func (s *liveStreamService) ListLive(ctx context.Context) ([]*models.LiveStream, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+liveStreamColumns+` FROM live_streams
		WHERE is_live = 1 AND is_approved = 1
		ORDER BY start_time DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	streams := []*models.LiveStream{}
	for rows.Next() {
		stream, err := scanLiveStream(rows)
		if err != nil {
			return nil, err
		}
		streams = append(streams, stream)
	}
	return streams, rows.Err()
}

func (s *liveStreamService) End(ctx context.Context, id, streamKey string) (*models.LiveStream, error) {
	if strings.TrimSpace(streamKey) == "" {
		return nil, invalid("stream_key is required")
	}

	var (
		hash   string
		isLive int
	)
	err := s.db.QueryRowContext(ctx, `SELECT stream_key_hash, is_live FROM live_streams WHERE id = ?`, id).
		Scan(&hash, &isLive)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrLiveStreamNotFound
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckSecret(hash, streamKey) {
		return nil, ErrInvalidStreamKey
	}
	if isLive == 0 {
		return nil, ErrLiveStreamEnded
	}

	now := nowDB()
	if _, err := s.db.ExecContext(ctx, `UPDATE live_streams SET is_live = 0, end_time = ?, updated_at = ? WHERE id = ?`,
		now, now, id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *liveStreamService) Approve(ctx context.Context, id string) (*models.LiveStream, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE live_streams SET is_approved = 1, updated_at = ? WHERE id = ?`, nowDB(), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrLiveStreamNotFound
	}
	return s.Get(ctx, id)
}

// ExpireStale ends every live stream that started before startedBefore.
func (s *liveStreamService) ExpireStale(ctx context.Context, startedBefore time.Time) (int64, error) {
	now := nowDB()
	res, err := s.db.ExecContext(ctx, `
		UPDATE live_streams SET is_live = 0, end_time = ?, updated_at = ?
		WHERE is_live = 1 AND start_time < ?`,
		now, now, utils.FormatDateTimeForDB(startedBefore),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *liveStreamService) Counts(ctx context.Context) (int, int, error) {
	var live, pending int
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(CASE WHEN is_live = 1 AND is_approved = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN is_approved = 0 THEN 1 ELSE 0 END), 0)
		FROM live_streams`).Scan(&live, &pending)
	return live, pending, err
}

func scanLiveStream(row rowScanner) (*models.LiveStream, error) {
	var (
		stream           models.LiveStream
		description      sql.NullString
		isLive, approved int
	)
	err := row.Scan(
		&stream.ID,
		&stream.Title,
		&description,
		&stream.Category,
		&stream.StreamerName,
		&stream.ChannelName,
		&isLive,
		&stream.Viewers,
		&stream.StartTime,
		&stream.EndTime,
		&approved,
		&stream.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	stream.Description = description.String
	stream.IsLive = isLive == 1
	stream.IsApproved = approved == 1
	return &stream, nil
}
