package services

import (
	"context"
	"fmt"
	"time"

	"github.com/justsurfingit/Auto-Apply-Agent/internal/models"
	"gorm.io/gorm"
)

// Statuses the billing flow uses for a subscription that still grants access.
var activeSubscriptionStatuses = []string{"active", "trialing"}

type PremiumChecker interface {
	IsPremiumSubscriber(ctx context.Context, user *models.User) (bool, error)
}

type SubscriptionService struct {
	DB  *gorm.DB
	Now func() time.Time
}

func NewSubscriptionService(db *gorm.DB) *SubscriptionService {
	return &SubscriptionService{DB: db, Now: time.Now}
}

func (s *SubscriptionService) IsPremiumSubscriber(ctx context.Context, user *models.User) (bool, error) {
	var count int64
	err := s.activePremium(s.DB.WithContext(ctx)).
		Where("user_id = ?", user.ID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check premium subscription for user %d: %w", user.ID, err)
	}
	return count > 0, nil
}

// PremiumUserIDs is a sub-query selecting user ids with an active premium subscription.
func (s *SubscriptionService) PremiumUserIDs(db *gorm.DB) *gorm.DB {
	return s.activePremium(db).Select("user_id")
}

func (s *SubscriptionService) activePremium(db *gorm.DB) *gorm.DB {
	return db.Model(&models.Subscription{}).
		Where("type = ?", models.SubscriptionTypePremium).
		Where("status IN ?", activeSubscriptionStatuses).
		Where("(ends_at IS NULL OR ends_at > ?)", s.Now())
}
