package models

// Video uploaded teaching video
type Video struct {
	ID               string   `json:"id" db:"id"`
	Title            string   `json:"title" db:"title"`
	Description      string   `json:"description" db:"description"`
	Category         string   `json:"category" db:"category"`
	Tags             []string `json:"tags" db:"tags"`
	Filename         string   `json:"-" db:"filename"` // path relative to storage.video_dir
	OriginalName     string   `json:"original_name" db:"original_name"`
	FileSize         int64    `json:"file_size" db:"file_size"`
	MimeType         string   `json:"mime_type" db:"mime_type"`
	Checksum         string   `json:"checksum" db:"checksum"`
	Thumbnail        string   `json:"-" db:"thumbnail"`
	ThumbnailMime    string   `json:"-" db:"thumbnail_mime"`
	UploadedBy       string   `json:"uploaded_by" db:"uploaded_by"`
	ChannelName      string   `json:"channel_name" db:"channel_name"`
	Views            int64    `json:"views" db:"views"`
	Likes            int64    `json:"likes" db:"likes"`
	IsApproved       bool     `json:"is_approved" db:"is_approved"`
	SpiritualContent bool     `json:"spiritual_content" db:"spiritual_content"`
	CreatedAt        string   `json:"created_at" db:"created_at"`
	UpdatedAt        string   `json:"updated_at" db:"updated_at"`

	VideoURL     string `json:"video_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// HasThumbnail reports whether a thumbnail was stored with the video.
func (v *Video) HasThumbnail() bool {
	return v.Thumbnail != ""
}

// CreateVideoRequest metadata fields of the multipart upload form
type CreateVideoRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	ChannelName string   `json:"channel_name"`
	UploadedBy  string   `json:"uploaded_by"`
}

// VideoStats dashboard counters for videos
type VideoStats struct {
	TotalVideos    int    `json:"total_videos"`
	ApprovedVideos int    `json:"approved_videos"`
	PendingVideos  int    `json:"pending_videos"`
	TotalViews     int64  `json:"total_views"`
	TotalBytes     int64  `json:"total_bytes"`
	TotalSize      string `json:"total_size"`
}
