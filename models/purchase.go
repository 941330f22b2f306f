package models

// Purchase status values
const (
	PurchaseStatusPending   = "pending"
	PurchaseStatusCompleted = "completed"
	PurchaseStatusCancelled = "cancelled"
)

// DefaultPurchaseImage is shown when a purchase has no cover image.
const DefaultPurchaseImage = "📚"

// PurchaseCategories accepted purchase categories
var PurchaseCategories = []string{"book", "course", "audio", "video"}

// Purchase library item bought by a user
type Purchase struct {
	ID        string  `json:"id" db:"id"`
	UserID    string  `json:"user_id" db:"user_id"`
	Title     string  `json:"title" db:"title"`
	Author    string  `json:"author" db:"author"`
	Price     float64 `json:"price" db:"price"`
	Status    string  `json:"status" db:"status"`
	Image     string  `json:"image" db:"image"`
	Category  string  `json:"category" db:"category"`
	CreatedAt string  `json:"created_at" db:"created_at"`
}

// CreatePurchaseRequest create request
type CreatePurchaseRequest struct {
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	Image    string  `json:"image"`
}

// PurchaseStats per-user totals
type PurchaseStats struct {
	TotalPurchases     int     `json:"total_purchases"`
	TotalSpent         float64 `json:"total_spent"`
	CompletedPurchases int     `json:"completed_purchases"`
}

// PurchaseList list response
type PurchaseList struct {
	Purchases []*Purchase   `json:"purchases"`
	Stats     PurchaseStats `json:"stats"`
}
