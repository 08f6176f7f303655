package service

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/ticketd/ticketd/internal/config"
	"github.com/ticketd/ticketd/internal/events"
)

// Broadcaster publishes a payload on a named channel. Satisfied by the
// go-redis client; kept narrow so tests can substitute a recorder.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, message interface{}) error
}

// NotificationService consumes domain events and fans them out to the
// real-time broadcast channel. Failures here are logged and dropped;
// the transition that produced the event has already committed.
type NotificationService struct {
	dispatcher  events.Dispatcher
	broadcaster Broadcaster
	logger      *zap.Logger
	cfg         config.NotificationConfig
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, broadcaster Broadcaster, logger *zap.Logger, cfg config.NotificationConfig) *NotificationService {
	return &NotificationService{
		dispatcher:  dispatcher,
		broadcaster: broadcaster,
		logger:      logger,
		cfg:         cfg,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketPriorityChanged, n.handlePriorityChanged)
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
}

// statusBroadcast is the wire shape consumed by the front-end listener
// on the tickets channel.
type statusBroadcast struct {
	TicketID string        `json:"ticket_id"`
	From     *string       `json:"from"`
	To       string        `json:"to"`
	Actor    *events.Actor `json:"actor"`
}

func (n *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok {
		n.logger.Warn("unexpected status payload", zap.String("ticket_id", event.TicketID))
		return nil
	}
	n.logger.Info("ticket status changed",
		zap.String("ticket_id", event.TicketID),
		zap.Stringp("from", payload.From),
		zap.String("to", payload.To))

	n.broadcast(ctx, statusBroadcast{
		TicketID: event.TicketID,
		From:     payload.From,
		To:       payload.To,
		Actor:    event.Actor,
	})
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) handlePriorityChanged(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket priority changed",
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.sendWebhookStub(event)
	return nil
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	n.logger.Info("ticket created",
		zap.String("ticket_id", event.TicketID),
		zap.Any("payload", event.Payload))
	n.sendEmailStub(event)
	return nil
}

func (n *NotificationService) broadcast(ctx context.Context, payload statusBroadcast) {
	if n.broadcaster == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("marshal broadcast payload", zap.Error(err))
		return
	}
	if err := n.broadcaster.Publish(ctx, n.cfg.Channel, body); err != nil {
		n.logger.Warn("broadcast publish failed",
			zap.String("channel", n.cfg.Channel),
			zap.String("ticket_id", payload.TicketID),
			zap.Error(err))
	}
}

func (n *NotificationService) sendEmailStub(event events.Event) {
	if strings.TrimSpace(n.cfg.EmailFrom) == "" {
		return
	}
	n.logger.Debug("sendEmailStub",
		zap.String("from", n.cfg.EmailFrom),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}

func (n *NotificationService) sendWebhookStub(event events.Event) {
	if strings.TrimSpace(n.cfg.WebhookURL) == "" {
		return
	}
	n.logger.Debug("sendWebhookStub",
		zap.String("url", n.cfg.WebhookURL),
		zap.String("ticket_id", event.TicketID),
		zap.String("event_type", string(event.Type)))
}
