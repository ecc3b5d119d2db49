package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/events"
)

// ActivityRecorder counts user activity.
type ActivityRecorder interface {
	RecordActivity(kind string)
}

// ActivityService logs and counts what users do through the web client.
type ActivityService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	recorder   ActivityRecorder
}

// NewActivityService creates the service.
func NewActivityService(dispatcher events.Dispatcher, logger *zap.Logger, recorder ActivityRecorder) *ActivityService {
	return &ActivityService{
		dispatcher: dispatcher,
		logger:     logger,
		recorder:   recorder,
	}
}

// RegisterHandlers subscribes to events.
func (a *ActivityService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventTicketCreated, a.handleTicketCreated)
	a.dispatcher.Subscribe(events.EventTicketStatusUpdated, a.handleTicketStatusUpdated)
}

func (a *ActivityService) handleTicketCreated(_ context.Context, event events.Event) error {
	a.logger.Info("TicketCreated",
		zap.String("ticket_id", event.TicketID),
		zap.String("request_id", event.RequestID),
		zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *ActivityService) handleTicketStatusUpdated(_ context.Context, event events.Event) error {
	a.logger.Info("TicketStatusUpdated",
		zap.String("ticket_id", event.TicketID),
		zap.String("request_id", event.RequestID),
		zap.Any("payload", event.Payload))
	a.record(event)
	return nil
}

func (a *ActivityService) record(event events.Event) {
	if a.recorder != nil {
		a.recorder.RecordActivity(string(event.Type))
	}
}
