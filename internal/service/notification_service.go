package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
	appErrors "github.com/noah-isme/attendance-tracker-api/pkg/errors"
	applog "github.com/noah-isme/attendance-tracker-api/pkg/logger"
)

type notificationUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateNotificationPreferences(ctx context.Context, id string, prefs models.NotificationPreferences) error
}

type pushSubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) (*models.PushSubscription, error)
}

// NotificationService stores reminder preferences and push subscriptions.
type NotificationService struct {
	users         notificationUserRepository
	subscriptions pushSubscriptionRepository
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewNotificationService constructs the notification service.
func NewNotificationService(users notificationUserRepository, subscriptions pushSubscriptionRepository, validate *validator.Validate, logger *zap.Logger) *NotificationService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{users: users, subscriptions: subscriptions, validator: validate, logger: logger}
}

// Preferences returns the user's reminder channels. Unset categories read as disabled.
func (s *NotificationService) Preferences(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return models.NotificationPreferences{}, notFoundOr(err, "user not found", "failed to load preferences")
	}
	return user.NotificationPreferences, nil
}

// UpdatePreferences replaces the stored preferences.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) (models.NotificationPreferences, error) {
	if err := s.users.UpdateNotificationPreferences(ctx, userID, prefs); err != nil {
		return models.NotificationPreferences{}, notFoundOr(err, "user not found", "failed to update preferences")
	}
	return prefs, nil
}

// Subscribe stores a browser push subscription for the user.
func (s *NotificationService) Subscribe(ctx context.Context, userID string, req models.SubscribeRequest) (*models.PushSubscription, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid subscription payload")
	}
	stored, err := s.subscriptions.Upsert(ctx, &models.PushSubscription{
		UserID:   userID,
		Endpoint: strings.TrimSpace(req.Endpoint),
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to save subscription")
	}
	applog.For(ctx, s.logger).Info("push subscription saved", zap.String("user_id", userID), zap.String("subscription_id", stored.ID))
	return stored, nil
}
