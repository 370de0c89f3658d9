package producer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Artexxx/employee-service/internal/dto"
)

type Config struct {
	Topic  string
	Source string
}

// EmployeeProducer публикует события об изменениях сотрудников.
type EmployeeProducer struct {
	sp     sarama.SyncProducer
	topic  string
	source string
	now    func() time.Time
	log    zerolog.Logger
}

func NewEmployeeProducer(sp sarama.SyncProducer, cfg Config, log zerolog.Logger) *EmployeeProducer {
	return &EmployeeProducer{
		sp:     sp,
		topic:  cfg.Topic,
		source: cfg.Source,
		now:    time.Now,
		log:    log.With().Str("component", "EmployeeProducer").Logger(),
	}
}

func (p *EmployeeProducer) Close() error {
	if p == nil || p.sp == nil {
		return nil
	}
	return p.sp.Close()
}

// Publish отправляет конверт с данными сотрудника. Ключ сообщения -
// идентификатор сотрудника, поэтому события одного сотрудника упорядочены.
func (p *EmployeeProducer) Publish(ctx context.Context, kind dto.EventKind, employee dto.Employee) error {
	envelope := dto.EmployeeEnvelope{
		Kind:       kind,
		MessageID:  uuid.New(),
		EmployeeID: employee.ID,
		Payload:    employee.Clone(),
		Timestamp:  p.now().UTC(),
		Source:     p.source,
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("json.Marshal: %w", err)
	}

	return p.send(ctx, employee.ID, body, map[string]string{
		"event-kind":   string(kind),
		"message-id":   envelope.MessageID.String(),
		"source":       p.source,
		"content-type": "application/json",
	})
}

func (p *EmployeeProducer) send(_ context.Context, key string, value []byte, headers map[string]string) error {
	if p == nil || p.sp == nil {
		return errors.New("sync producer is not initialized")
	}

	hs := make([]sarama.RecordHeader, 0, len(headers))
	for k, v := range headers {
		hs = append(hs, sarama.RecordHeader{Key: []byte(k), Value: []byte(v)})
	}

	msg := &sarama.ProducerMessage{
		Topic:   p.topic,
		Key:     sarama.StringEncoder(key),
		Value:   sarama.ByteEncoder(value),
		Headers: hs,
	}

	part, off, err := p.sp.SendMessage(msg)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("topic", p.topic).
			Str("key", key).
			Int("bytes", len(value)).
			Msg("failed to send kafka message")
		return fmt.Errorf("send kafka message: %w", err)
	}

	p.log.Debug().
		Str("topic", p.topic).
		Str("key", key).
		Int32("partition", part).
		Int64("offset", off).
		Int("bytes", len(value)).
		Msg("kafka message sent")

	return nil
}

// Nop - публикатор без Kafka.
type Nop struct{}

func (Nop) Publish(context.Context, dto.EventKind, dto.Employee) error { return nil }
