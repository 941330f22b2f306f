package models

// LiveStream broadcast session. The stream key is only returned once, at creation.
type LiveStream struct {
	ID           string `json:"id" db:"id"`
	Title        string `json:"title" db:"title"`
	Description  string `json:"description" db:"description"`
	Category     string `json:"category" db:"category"`
	StreamerName string `json:"streamer_name" db:"streamer_name"`
	ChannelName  string `json:"channel_name" db:"channel_name"`
	IsLive       bool   `json:"is_live" db:"is_live"`
	Viewers      int    `json:"viewers" db:"viewers"`
	StartTime    string `json:"start_time" db:"start_time"`
	EndTime      string `json:"end_time,omitempty" db:"end_time"`
	IsApproved   bool   `json:"is_approved" db:"is_approved"`
	CreatedAt    string `json:"created_at" db:"created_at"`
}

// StartLiveStreamRequest start request
type StartLiveStreamRequest struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	Category     string `json:"category"`
	StreamerName string `json:"streamer_name"`
	ChannelName  string `json:"channel_name"`
}

// StartLiveStreamResponse carries the plain stream key
type StartLiveStreamResponse struct {
	Stream    *LiveStream `json:"stream"`
	StreamKey string      `json:"stream_key"`
}

// EndLiveStreamRequest end request
type EndLiveStreamRequest struct {
	StreamKey string `json:"stream_key"`
}
