package models

// ActivityLog audit entry
type ActivityLog struct {
	ID        string `json:"id" db:"id"`
	ActorID   string `json:"actor_id" db:"actor_id"`
	ActorName string `json:"actor_name" db:"actor_name"`
	Action    string `json:"action" db:"action"`
	Details   string `json:"details" db:"details"`
	CreatedAt string `json:"created_at" db:"created_at"`
}

// Activity actions
const (
	ActionUploadVideo      = "upload_video"
	ActionApproveVideo     = "approve_video"
	ActionDeleteVideo      = "delete_video"
	ActionStartLiveStream  = "start_live_stream"
	ActionEndLiveStream    = "end_live_stream"
	ActionApproveLive      = "approve_live_stream"
	ActionExpireLiveStream = "expire_live_stream"
)

// DashboardStats admin dashboard counters
type DashboardStats struct {
	Videos         VideoStats     `json:"videos"`
	LiveNow        int            `json:"live_now"`
	PendingStreams int            `json:"pending_streams"`
	Challenges     int            `json:"challenges"`
	Submissions    int            `json:"submissions"`
	Purchases      int            `json:"purchases"`
	RecentActivity []*ActivityLog `json:"recent_activity"`
}
