package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"dharmaverse/models"
	"dharmaverse/utils"

	"github.com/dustin/go-humanize"
)

var (
	// ErrVideoNotFound is returned when no video has the requested id.
	ErrVideoNotFound = errors.New("video not found")
	// ErrNotSpiritual is returned when an upload contains none of the moderation keywords.
	ErrNotSpiritual = errors.New("content must be spiritual in nature")
)

// VideoFilter narrows List results.
type VideoFilter struct {
	Approved *bool
	Category string
	Page     int
	PageSize int
}

// VideoService manages video records. Files live in storage; only their
// relative paths are persisted here.
type VideoService interface {
	Create(ctx context.Context, req models.CreateVideoRequest, file VideoFile) (*models.Video, error)
	Get(ctx context.Context, id string) (*models.Video, error)
	List(ctx context.Context, filter VideoFilter) ([]*models.Video, int, error)
	Approve(ctx context.Context, id string) (*models.Video, error)
	Delete(ctx context.Context, id string) (*models.Video, error)
	IncrementViews(ctx context.Context, id string) error
	Stats(ctx context.Context) (models.VideoStats, error)
}

// VideoFile is the stored-file metadata attached to a new video.
type VideoFile struct {
	Path          string
	OriginalName  string
	Size          int64
	MimeType      string
	Checksum      string
	Thumbnail     string
	ThumbnailMime string
}

type videoService struct {
	db        SQLExecutor
	moderator *Moderator
}

// NewVideoService creates a VideoService.
func NewVideoService(db SQLExecutor, moderator *Moderator) VideoService {
	return &videoService{db: db, moderator: moderator}
}

const videoColumns = `id, title, description, category, tags, filename, original_name, file_size, mime_type,
	checksum, thumbnail, thumbnail_mime, uploaded_by, channel_name, views, likes, is_approved,
	spiritual_content, created_at, updated_at`

func (s *videoService) Create(ctx context.Context, req models.CreateVideoRequest, file VideoFile) (*models.Video, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.ChannelName = strings.TrimSpace(req.ChannelName)
	req.UploadedBy = strings.TrimSpace(req.UploadedBy)

	switch {
	case req.Title == "":
		return nil, invalid("title is required")
	case req.ChannelName == "":
		return nil, invalid("channel_name is required")
	case req.UploadedBy == "":
		return nil, invalid("uploaded_by is required")
	case file.Path == "":
		return nil, invalid("video file is required")
	}

	category, ok := s.moderator.NormalizeCategory(req.Category)
	if !ok {
		return nil, invalid("category must be one of: %s", strings.Join(s.moderator.Categories(), ", "))
	}

	if !s.moderator.IsSpiritual(req.Title, req.Description, strings.Join(req.Tags, " ")) {
		return nil, ErrNotSpiritual
	}

	id, err := utils.GenerateID("vid")
	if err != nil {
		return nil, err
	}

	mimeType := file.MimeType
	if mimeType == "" {
		mimeType = "video/mp4"
	}

	now := nowDB()
	video := &models.Video{
		ID:               id,
		Title:            req.Title,
		Description:      req.Description,
		Category:         category,
		Tags:             splitTags(joinTags(req.Tags)),
		Filename:         file.Path,
		OriginalName:     file.OriginalName,
		FileSize:         file.Size,
		MimeType:         mimeType,
		Checksum:         file.Checksum,
		Thumbnail:        file.Thumbnail,
		ThumbnailMime:    file.ThumbnailMime,
		UploadedBy:       req.UploadedBy,
		ChannelName:      req.ChannelName,
		IsApproved:       false,
		SpiritualContent: true,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO videos (`+videoColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		video.ID, video.Title, video.Description, video.Category, joinTags(video.Tags), video.Filename,
		video.OriginalName, video.FileSize, video.MimeType, video.Checksum, video.Thumbnail,
		video.ThumbnailMime, video.UploadedBy, video.ChannelName, 0, 0, boolToInt(video.IsApproved),
		boolToInt(video.SpiritualContent), video.CreatedAt, video.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert video: %w", err)
	}

	return video, nil
}

func (s *videoService) Get(ctx context.Context, id string) (*models.Video, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+videoColumns+` FROM videos WHERE id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrVideoNotFound
	}
	if err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) List(ctx context.Context, filter VideoFilter) ([]*models.Video, int, error) {
	where := []string{}
	args := []interface{}{}

	if filter.Approved != nil {
		where = append(where, "is_approved = ?")
		args = append(args, boolToInt(*filter.Approved))
	}
	if filter.Category != "" {
		category := filter.Category
		if canonical, ok := s.moderator.NormalizeCategory(category); ok {
			category = canonical
		}
		where = append(where, "category = ?")
		args = append(args, category)
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM videos"+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count videos: %w", err)
	}

	page, pageSize := normalizePage(filter.Page, filter.PageSize)
	query := `SELECT ` + videoColumns + ` FROM videos` + whereClause +
		` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := s.db.QueryContext(ctx, query, append(args, pageSize, (page-1)*pageSize)...)
	if err != nil {
		return nil, 0, fmt.Errorf("query videos: %w", err)
	}
	defer rows.Close()

	videos := []*models.Video{}
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, 0, err
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return videos, total, nil
}

func (s *videoService) Approve(ctx context.Context, id string) (*models.Video, error) {
	res, err := s.db.ExecContext(ctx, `UPDATE videos SET is_approved = 1, updated_at = ? WHERE id = ?`, nowDB(), id)
	if err != nil {
		return nil, err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return nil, ErrVideoNotFound
	}
	return s.Get(ctx, id)
}

func (s *videoService) Delete(ctx context.Context, id string) (*models.Video, error) {
	video, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *videoService) IncrementViews(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE videos SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		return ErrVideoNotFound
	}
	return nil
}

func (s *videoService) Stats(ctx context.Context) (models.VideoStats, error) {
	var stats models.VideoStats
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN is_approved = 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(views), 0),
			COALESCE(SUM(file_size), 0)
		FROM videos`).Scan(&stats.TotalVideos, &stats.ApprovedVideos, &stats.TotalViews, &stats.TotalBytes)
	if err != nil {
		return stats, err
	}

	stats.PendingVideos = stats.TotalVideos - stats.ApprovedVideos
	stats.TotalSize = humanize.Bytes(uint64(stats.TotalBytes))
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var (
		video               models.Video
		description, tags   sql.NullString
		approved, spiritual int
	)
	err := row.Scan(
		&video.ID,
		&video.Title,
		&description,
		&video.Category,
		&tags,
		&video.Filename,
		&video.OriginalName,
		&video.FileSize,
		&video.MimeType,
		&video.Checksum,
		&video.Thumbnail,
		&video.ThumbnailMime,
		&video.UploadedBy,
		&video.ChannelName,
		&video.Views,
		&video.Likes,
		&approved,
		&spiritual,
		&video.CreatedAt,
		&video.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Description = description.String
	video.Tags = splitTags(tags.String)
	video.IsApproved = approved == 1
	video.SpiritualContent = spiritual == 1
	return &video, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
