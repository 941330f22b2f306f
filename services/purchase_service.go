package services

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"dharmaverse/models"
	"dharmaverse/utils"
)

// PurchaseService records library purchases per user.
type PurchaseService interface {
	List(ctx context.Context, userID string) (*models.PurchaseList, error)
	Create(ctx context.Context, userID string, req models.CreatePurchaseRequest) (*models.Purchase, error)
	Count(ctx context.Context) (int, error)
}

type purchaseService struct {
	db SQLExecutor
}

// NewPurchaseService creates a PurchaseService.
func NewPurchaseService(db SQLExecutor) PurchaseService {
	return &purchaseService{db: db}
}

func (s *purchaseService) List(ctx context.Context, userID string) (*models.PurchaseList, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, title, author, price, status, image, category, created_at
		FROM purchases WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := &models.PurchaseList{Purchases: []*models.Purchase{}}
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.UserID, &p.Title, &p.Author, &p.Price, &p.Status, &p.Image,
			&p.Category, &p.CreatedAt); err != nil {
			return nil, err
		}

		list.Purchases = append(list.Purchases, &p)
		list.Stats.TotalPurchases++
		list.Stats.TotalSpent += p.Price
		if p.Status == models.PurchaseStatusCompleted {
			list.Stats.CompletedPurchases++
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	list.Stats.TotalSpent = math.Round(list.Stats.TotalSpent*100) / 100
	return list, nil
}

func (s *purchaseService) Create(ctx context.Context, userID string, req models.CreatePurchaseRequest) (*models.Purchase, error) {
	req.Title = strings.TrimSpace(req.Title)
	req.Author = strings.TrimSpace(req.Author)
	req.Category = strings.ToLower(strings.TrimSpace(req.Category))

	switch {
	case userID == "":
		return nil, invalid("user is required")
	case req.Title == "":
		return nil, invalid("title is required")
	case req.Author == "":
		return nil, invalid("author is required")
	case req.Price < 0 || math.IsNaN(req.Price) || math.IsInf(req.Price, 0):
		return nil, invalid("price must be zero or more")
	case !slices.Contains(models.PurchaseCategories, req.Category):
		return nil, invalid("category must be one of: %s", strings.Join(models.PurchaseCategories, ", "))
	}

	image := strings.TrimSpace(req.Image)
	if image == "" {
		image = models.DefaultPurchaseImage
	}

	id, err := utils.GenerateID("pur")
	if err != nil {
		return nil, err
	}

	p := &models.Purchase{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Author:    req.Author,
		Price:     req.Price,
		Status:    models.PurchaseStatusCompleted,
		Image:     image,
		Category:  req.Category,
		CreatedAt: nowDB(),
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO purchases (id, user_id, title, author, price, status, image, category, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Title, p.Author, p.Price, p.Status, p.Image, p.Category, p.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert purchase: %w", err)
	}
	return p, nil
}

func (s *purchaseService) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM purchases`).Scan(&count)
	return count, err
}
