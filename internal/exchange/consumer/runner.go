package consumer

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Artexxx/employee-service/internal/dto"
)

const defaultRetry = 500 * time.Millisecond

type EventsRepository interface {
	ExistsMessage(ctx context.Context, messageID uuid.UUID) (bool, error)
	InsertEvent(ctx context.Context, ev dto.EmployeeEvent) error
	InsertDLQ(ctx context.Context, dlq dto.EmployeeEventDLQ) error
}

// Runner читает топик событий сотрудников в составе consumer group.
type Runner struct {
	brokers []string
	groupID string
	topic   string
	handler *handler
	log     zerolog.Logger

	retry         time.Duration
	balance       sarama.BalanceStrategy
	initialOffset int64
}

// Option настраивает Runner.
type Option func(*Runner)

// WithRetry задаёт паузу перед повторным Consume после ошибки.
func WithRetry(d time.Duration) Option {
	return func(r *Runner) {
		if d > 0 {
			r.retry = d
		}
	}
}

// WithBalanceStrategy задаёт стратегию распределения партиций в группе.
func WithBalanceStrategy(s sarama.BalanceStrategy) Option {
	return func(r *Runner) {
		if s != nil {
			r.balance = s
		}
	}
}

// WithInitialOffset задаёт офсет для группы без сохранённых офсетов:
// sarama.OffsetOldest или sarama.OffsetNewest.
func WithInitialOffset(offset int64) Option {
	return func(r *Runner) {
		r.initialOffset = offset
	}
}

// NewJournalRunner создаёт consumer group, которая пишет события сотрудников в журнал.
func NewJournalRunner(bootstrap, topic, groupID string, events EventsRepository, log zerolog.Logger, opts ...Option) *Runner {
	h := &handler{
		events:      events,
		log:         log.With().Str("consumer", "journal").Logger(),
		commitOnDLQ: true,
	}

	r := &Runner{
		brokers:       splitBrokers(bootstrap),
		groupID:       groupID,
		topic:         topic,
		handler:       h,
		log:           log.With().Str("topic", topic).Str("group", groupID).Logger(),
		retry:         defaultRetry,
		balance:       sarama.NewBalanceStrategyRange(),
		initialOffset: sarama.OffsetOldest,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

func splitBrokers(bootstrap string) []string {
	var brokers []string
	for _, b := range strings.Split(bootstrap, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}

	return brokers
}

// saramaConfig собирает конфигурацию группы. Офсеты коммитятся через session.MarkMessage.
func (r *Runner) saramaConfig() *sarama.Config {
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_3_2_0
	cfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{r.balance}
	cfg.Consumer.Offsets.Initial = r.initialOffset
	cfg.Consumer.Return.Errors = true

	return cfg
}

// Start читает топик до отмены ctx. Ошибки Consume не завершают работу: после паузы
// группа переподключается.
func (r *Runner) Start(ctx context.Context) error {
	group, err := sarama.NewConsumerGroup(r.brokers, r.groupID, r.saramaConfig())
	if err != nil {
		return err
	}
	defer func() { _ = group.Close() }()

	go r.logErrors(group.Errors())

	r.log.Info().Msg("consumer started")
	defer r.log.Info().Msg("consumer stopped")

	topics := []string{r.topic}
	for ctx.Err() == nil {
		err := group.Consume(ctx, topics, r.handler)
		if ctx.Err() != nil || isCanceled(err) {
			return nil
		}
		if err == nil {
			// ребалансировка: новая сессия
			continue
		}

		r.log.Error().Err(err).Dur("retry", r.retry).Msg("consume error")
		if !r.wait(ctx) {
			return nil
		}
	}

	return nil
}

func (r *Runner) logErrors(errs <-chan error) {
	for err := range errs {
		if err == nil || isCanceled(err) {
			continue
		}

		r.log.Error().Err(err).Msg("consumer group error")
	}
}

// wait выдерживает паузу retry. false, если ctx отменён раньше.
func (r *Runner) wait(ctx context.Context) bool {
	timer := time.NewTimer(r.retry)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func isCanceled(err error) bool {
	return err != nil && (errors.Is(err, context.Canceled) || strings.Contains(err.Error(), "context canceled"))
}
