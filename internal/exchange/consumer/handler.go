package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IBM/sarama"
	"github.com/rs/zerolog"

	"github.com/Artexxx/employee-service/internal/dto"
)

type handler struct {
	events      EventsRepository
	log         zerolog.Logger
	commitOnDLQ bool
}

func (h *handler) Setup(_ sarama.ConsumerGroupSession) error   { return nil }
func (h *handler) Cleanup(_ sarama.ConsumerGroupSession) error { return nil }

func (h *handler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if h.process(sess.Context(), msg) {
			sess.MarkMessage(msg, "")
		}
	}

	return nil
}

// process пишет сообщение в журнал и возвращает true, если офсет можно закоммитить.
func (h *handler) process(ctx context.Context, msg *sarama.ConsumerMessage) bool {
	var env dto.EmployeeEnvelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return h.toDLQ(ctx, msg, fmt.Sprintf("invalid_json: %v", err))
	}

	if verr := validateEnvelope(env); verr != "" {
		return h.toDLQ(ctx, msg, verr)
	}

	exists, err := h.events.ExistsMessage(ctx, env.MessageID)
	if err != nil {
		return h.toDLQ(ctx, msg, fmt.Sprintf("events.ExistsMessage: %v", err))
	}

	if exists {
		h.log.Info().
			Str("message_id", env.MessageID.String()).
			Str("employee_id", env.EmployeeID).
			Msg("duplicate message, skip (idempotency)")
		return true
	}

	payload, err := json.Marshal(env.Payload)
	if err != nil {
		return h.toDLQ(ctx, msg, fmt.Sprintf("json.Marshal payload: %v", err))
	}

	err = h.events.InsertEvent(ctx, dto.EmployeeEvent{
		MessageID:  env.MessageID,
		Kind:       env.Kind,
		EmployeeID: env.EmployeeID,
		Topic:      msg.Topic,
		Partition:  int(msg.Partition),
		Offset:     msg.Offset,
		Payload:    payload,
	})
	if errors.Is(err, dto.ErrDuplicateMessage) {
		h.log.Info().Str("message_id", env.MessageID.String()).Msg("duplicate message on insert, skip")
		return true
	}
	if err != nil {
		return h.toDLQ(ctx, msg, fmt.Sprintf("events.InsertEvent: %v", err))
	}

	h.log.Debug().
		Str("message_id", env.MessageID.String()).
		Str("kind", string(env.Kind)).
		Str("employee_id", env.EmployeeID).
		Int64("offset", msg.Offset).
		Msg("event journaled")

	return true
}

func (h *handler) toDLQ(ctx context.Context, msg *sarama.ConsumerMessage, reason string) bool {
	h.log.Warn().
		Str("topic", msg.Topic).
		Int32("partition", msg.Partition).
		Int64("offset", msg.Offset).
		Str("reason", reason).
		Msg("message sent to DLQ")

	err := h.events.InsertDLQ(ctx, dto.EmployeeEventDLQ{
		Topic:   msg.Topic,
		Key:     string(msg.Key),
		Payload: string(msg.Value),
		Error:   reason,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("events.InsertDLQ failed")
		return false
	}

	return h.commitOnDLQ
}
