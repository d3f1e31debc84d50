package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/shift-scheduler/internal/config"
	"github.com/spec-kit/shift-scheduler/internal/events"
)

// NotificationService handles emitting notifications for domain events.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	cfg        config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		logger:     logger,
		cfg:        cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventAccountRegistered, n.handleRegistration)
	n.dispatcher.Subscribe(events.EventWorkerRegistered, n.handleRegistration)
	n.dispatcher.Subscribe(events.EventSignInBlocked, n.handleSignInBlocked)
	n.dispatcher.Subscribe(events.EventDepartmentCreated, n.handleDepartmentChanged)
	n.dispatcher.Subscribe(events.EventDepartmentDeleted, n.handleDepartmentChanged)
}

// New pending accounts need an administrator to approve them.
func (n *NotificationService) handleRegistration(ctx context.Context, event events.Event) error {
	n.logger.Info("AccountRegistered", zap.String("subject_id", event.SubjectID), zap.String("event_type", string(event.Type)), zap.Any("payload", event.Payload))
	n.sendAdminEmailStub(ctx, event)
	return nil
}

func (n *NotificationService) handleSignInBlocked(ctx context.Context, event events.Event) error {
	n.logger.Debug("SignInBlocked", zap.String("subject_id", event.SubjectID), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) handleDepartmentChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("DepartmentChanged", zap.String("department_id", event.SubjectID), zap.String("event_type", string(event.Type)), zap.Any("payload", event.Payload))
	n.sendWebhookNotificationStub(ctx, event)
	return nil
}

func (n *NotificationService) sendAdminEmailStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || strings.TrimSpace(n.cfg.AdminEmail) == "" {
		return
	}
	n.logger.Debug("sendAdminEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", n.cfg.AdminEmail),
		zap.String("subject_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(ctx context.Context, event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("department_id", event.SubjectID),
		zap.String("event_type", string(event.Type)))
}
