package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/workforce-service/internal/config"
	"github.com/spec-kit/workforce-service/internal/events"
)

// NotificationService fans staff events out to notification channels. The
// channels are stubs that log what would be sent.
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
	n.dispatcher.Subscribe(events.EventStaffStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventStaffLicenseExpiring, n.handleLicenseAlert)
	n.dispatcher.Subscribe(events.EventStaffLicenseExpired, n.handleLicenseAlert)
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.StatusChangedPayload)
	if !ok {
		n.logger.Warn("StaffStatusChanged with unexpected payload", zap.String("event_id", event.ID))
		return nil
	}
	n.logger.Info("StaffStatusChanged",
		zap.String("staff_id", payload.StaffID),
		zap.String("from", string(payload.PreviousStatus)),
		zap.String("to", string(payload.CurrentStatus)),
		zap.Bool("requires_workload_reassignment", payload.RequiresWorkloadReassignment))
	n.sendWebhookNotificationStub(ctx, event, payload.StaffID)
	return nil
}

func (n *NotificationService) handleLicenseAlert(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.LicenseAlertPayload)
	if !ok {
		n.logger.Warn("license alert with unexpected payload", zap.String("event_id", event.ID))
		return nil
	}
	n.logger.Info("StaffLicenseAlert",
		zap.String("event_type", string(event.Type)),
		zap.String("staff_id", payload.StaffID),
		zap.String("license_number", payload.LicenseNumber),
		zap.Int("days_until_expiry", payload.DaysUntilExpiry))
	n.sendEmailNotificationStub(ctx, event, payload.Email)
	n.sendWebhookNotificationStub(ctx, event, payload.StaffID)
	return nil
}

func (n *NotificationService) sendEmailNotificationStub(_ context.Context, event events.Event, to string) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" || to == "" {
		return
	}
	n.logger.Debug("sendEmailNotificationStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("to", to),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookNotificationStub(_ context.Context, event events.Event, staffID string) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookNotificationStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("staff_id", staffID),
		zap.String("event_type", string(event.Type)))
}
