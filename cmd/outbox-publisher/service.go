package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/db/models"
	"github.com/angelmondragon/freightdesk-backend/pkg/enums"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/freightdesk-backend/pkg/outbox/registry"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	defaultBatchSize      = 50
	defaultPollMs         = 500
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxBackoff            = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

var jitterSource = rand.New(rand.NewSource(time.Now().UnixNano()))

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
}

// Service relays committed workflow events (quotation created, payment
// created or failed, proof uploaded, receiver submitted) from the outbox
// table to Pub/Sub. Rows that can never be delivered are dead-lettered.
type Service struct {
	logg             *logger.Logger
	db               dbClient
	repo             outboxRepository
	pubsub           pubSubClient
	registry         registryResolver
	dlq              dlqRepository
	publisherFactory publisherFactory
	batchSize        int
	maxAttempts      int
	pollInterval     time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	switch {
	case params.Config == nil:
		return nil, errors.New("config is required")
	case params.Logger == nil:
		return nil, errors.New("logger is required")
	case params.DB == nil:
		return nil, errors.New("database client is required")
	case params.PubSub == nil:
		return nil, errors.New("pubsub client is required")
	case params.Repository == nil:
		return nil, errors.New("outbox repository is required")
	case params.Registry == nil:
		return nil, errors.New("event registry is required")
	case params.DLQRepository == nil:
		return nil, errors.New("dlq repository is required")
	}

	factory := params.PublisherFactory
	if factory == nil {
		factory = func(topic string) publisher {
			return newGCPPublisher(params.PubSub.Publisher(topic))
		}
	}

	cfg := params.Config.Outbox
	return &Service{
		logg:             params.Logger,
		db:               params.DB,
		repo:             params.Repository,
		pubsub:           params.PubSub,
		registry:         params.Registry,
		dlq:              params.DLQRepository,
		publisherFactory: factory,
		batchSize:        positiveOr(cfg.BatchSize, defaultBatchSize),
		maxAttempts:      positiveOr(cfg.MaxAttempts, defaultMaxAttempts),
		pollInterval:     time.Duration(positiveOr(cfg.PollIntervalMS, defaultPollMs)) * time.Millisecond,
	}, nil
}

func positiveOr(v, fallback int) int {
	if v <= 0 {
		return fallback
	}
	return v
}

func (s *Service) ensureReadiness(ctx context.Context) error {
	for _, dep := range []struct {
		name string
		ping func(context.Context) error
	}{
		{"database", s.db.Ping},
		{"pubsub", s.pubsub.Ping},
	} {
		if err := dep.ping(ctx); err != nil {
			s.logg.Error(s.logg.WithField(ctx, "dependency", dep.name), "outbox publisher dependency unavailable", err)
			return fmt.Errorf("%s ping failed: %w", dep.name, err)
		}
	}
	return nil
}

// Run polls until ctx is cancelled. A full batch is followed immediately by
// the next one; batch errors back off exponentially up to maxBackoff.
func (s *Service) Run(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := s.ensureReadiness(ctx); err != nil {
		return err
	}

	backoff := s.pollInterval
	for {
		if err := ctx.Err(); err != nil {
			s.logg.Info(ctx, "outbox publisher stopping")
			return err
		}

		processed, err := s.processBatch(ctx)
		if err != nil {
			s.logg.Error(ctx, "outbox batch rolled back", err)
			backoff = nextBackoff(backoff, s.pollInterval, maxBackoff)
			if err := s.sleep(ctx, withJitter(backoff)); err != nil {
				return err
			}
			continue
		}
		backoff = s.pollInterval
		if processed {
			continue
		}
		if err := s.sleep(ctx, withJitter(s.pollInterval)); err != nil {
			return err
		}
	}
}

// processBatch locks a batch of unpublished rows and relays each one inside
// the same transaction, so a crash mid-batch leaves the rows for the next run.
func (s *Service) processBatch(ctx context.Context) (bool, error) {
	processed := false
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return err
		}
		processed = len(events) > 0
		for _, event := range events {
			if err := s.relay(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	return processed, err
}

// relay publishes one row and records the outcome. A returned error aborts
// the batch; publish failures are recorded on the row instead.
func (s *Service) relay(ctx context.Context, tx *gorm.DB, event models.OutboxEvent) error {
	resolved, err := s.registry.Resolve(event)
	if err != nil {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, s.eventFields(event, nil))
	}

	fields := s.eventFields(event, resolved)
	err = s.publish(ctx, event, resolved)
	if err == nil {
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark %s %s published: %w", event.EventType, event.ID, err)
		}
		s.logg.Info(s.logg.WithFields(ctx, fields), "workflow event published")
		return nil
	}

	var nonRetry registry.NonRetryableError
	if errors.As(err, &nonRetry) {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonNonRetryable, err, fields)
	}

	attempt := event.AttemptCount + 1
	fields["attempt_count"] = attempt
	if attempt >= s.maxAttempts {
		return s.deadLetter(ctx, tx, event, enums.OutboxDLQReasonMaxAttempts,
			fmt.Errorf("gave up after %d publish attempts: %w", attempt, err), fields)
	}

	logCtx := s.logg.WithFields(ctx, fields)
	s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "workflow event publish failed, will retry")
	if err := s.repo.MarkFailedTx(tx, event.ID, err); err != nil {
		return fmt.Errorf("record failed publish of %s %s: %w", event.EventType, event.ID, err)
	}
	return nil
}

// deadLetter copies the row into outbox_dlq and stops retrying it. Admin
// tooling reads the DLQ to replay payment and shipment notifications by hand.
func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, reason enums.OutboxDLQErrorReason, cause error, fields map[string]any) error {
	fields["dlq_reason"] = reason
	logCtx := s.logg.WithFields(ctx, fields)
	s.logg.Warn(s.logg.WithField(logCtx, "error", cause.Error()), "workflow event dead-lettered")

	msg := fmt.Sprintf("%s for %s %s: %v", event.EventType, event.AggregateType, event.AggregateID, cause)
	entry := models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}
	if err := s.dlq.InsertTx(tx, entry); err != nil {
		return fmt.Errorf("dead-letter %s %s: %w", event.EventType, event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark %s %s terminal: %w", event.EventType, event.ID, err)
	}
	return nil
}

func (s *Service) publish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) error {
	topic := resolved.Descriptor.Topic
	pub := s.publisherFactory(topic)
	if pub == nil {
		return registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
	}

	attrs := map[string]string{
		"event_id":       resolved.Envelope.EventID,
		"event_type":     string(event.EventType),
		"aggregate_type": string(event.AggregateType),
		"aggregate_id":   event.AggregateID.String(),
		"created_at":     event.CreatedAt.Format(time.RFC3339Nano),
	}
	for k, v := range domainAttributes(resolved.Payload) {
		attrs[k] = v
	}

	publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
	defer cancel()
	result := pub.Publish(publishCtx, &gcppubsub.Message{Data: event.Payload, Attributes: attrs})
	if result == nil {
		return registry.NewNonRetryableError(fmt.Errorf("publisher returned no result for topic %s", topic))
	}
	_, err := result.Get(publishCtx)
	return err
}

// domainAttributes lifts the human references subscribers filter on
// (payment reference numbers, quotation codes) into message attributes.
func domainAttributes(payload any) map[string]string {
	switch p := payload.(type) {
	case *payloads.PaymentCreatedEvent:
		return map[string]string{"reference_number": p.ReferenceNumber, "user_id": p.UserID.String()}
	case *payloads.PaymentFailedEvent:
		return map[string]string{"reference_number": p.ReferenceNumber, "user_id": p.UserID.String()}
	case *payloads.PaymentProofUploadedEvent:
		return map[string]string{"payment_status": string(p.Status), "user_id": p.UserID.String()}
	case *payloads.QuotationCreatedEvent:
		return map[string]string{"quotation_code": p.Code}
	case *payloads.ShipmentReceiverSubmittedEvent:
		return map[string]string{"quotation_id": p.QuotationID.String(), "user_id": p.UserID.String()}
	}
	return nil
}

// aggregateField names the aggregate id the way the API logs it.
func aggregateField(t enums.OutboxAggregateType) string {
	switch t {
	case enums.AggregatePayment:
		return "payment_id"
	case enums.AggregateQuotation:
		return "quotation_id"
	case enums.AggregateShipment:
		return "shipment_id"
	}
	return "aggregate_id"
}

func (s *Service) eventFields(event models.OutboxEvent, resolved *registry.ResolvedEvent) map[string]any {
	fields := map[string]any{
		"outbox_id":                         event.ID.String(),
		"event_type":                        event.EventType,
		aggregateField(event.AggregateType): event.AggregateID.String(),
		"attempt_count":                     event.AttemptCount,
	}
	if event.LastError != nil {
		fields["last_error"] = *event.LastError
	}
	if resolved == nil {
		return fields
	}
	fields["topic"] = resolved.Descriptor.Topic
	if resolved.Envelope.EventID != "" {
		fields["event_id"] = resolved.Envelope.EventID
		fields["occurred_at"] = resolved.Envelope.OccurredAt.Format(time.RFC3339Nano)
	}
	for k, v := range domainAttributes(resolved.Payload) {
		fields[k] = v
	}
	return fields
}

func (s *Service) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func nextBackoff(current, base, max time.Duration) time.Duration {
	if current <= 0 {
		current = base
	}
	next := current * 2
	if next > max {
		return max
	}
	return next
}

func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	return d + time.Duration(jitterSource.Int63n(int64(jitterWindow)))
}

func newGCPPublisher(p *gcppubsub.Publisher) publisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
