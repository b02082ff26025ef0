package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/spec-kit/workforce-service/internal/api/dto"
	"github.com/spec-kit/workforce-service/internal/events"
	apperrors "github.com/spec-kit/workforce-service/pkg/util"
	"github.com/spec-kit/workforce-service/pkg/validation"
)

// EventsHandler accepts lifecycle events from the lead, customer and policy
// domains and puts them on the in-process bus.
type EventsHandler struct {
	dispatcher events.Dispatcher
	validator  *validation.Validator
	now        func() time.Time
}

// NewEventsHandler constructs handler.
func NewEventsHandler(dispatcher events.Dispatcher, v *validation.Validator) *EventsHandler {
	return &EventsHandler{dispatcher: dispatcher, validator: v, now: time.Now}
}

// Ingest handles POST /events. A payload that does not decode is still
// published as-is; the workload handlers log and drop it. Only storage
// failures surface, as a 500. A redelivery must reuse the event id so staff
// already updated by the first attempt are skipped.
func (h *EventsHandler) Ingest(c *fiber.Ctx) error {
	var req dto.EventEnvelope
	if err := parseBody(c, h.validator, &req); err != nil {
		return err
	}
	eventType := events.EventType(req.Type)
	if !eventType.IsLifecycle() {
		return apperrors.NewValidationError("unsupported event type", map[string]any{"type": req.Type})
	}

	event := events.Event{
		ID:        req.ID,
		Type:      eventType,
		Timestamp: h.now().UTC(),
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if req.OccurredAt != nil {
		event.Timestamp = req.OccurredAt.UTC()
	}
	if payload, err := events.DecodeLifecyclePayload(req.Payload); err == nil {
		event.Payload = payload
	} else {
		event.Payload = json.RawMessage(req.Payload)
	}

	if err := h.dispatcher.Publish(c.UserContext(), event); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(http.StatusAccepted).JSON(fiber.Map{"data": fiber.Map{"id": event.ID, "type": event.Type}})
}
