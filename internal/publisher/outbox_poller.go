package publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/fjod/fitstore/internal/domain"
	"github.com/segmentio/kafka-go"
)

const (
	DefaultTopic = "fitcoin-redemptions"
	EventType    = "RedemptionCompleted"
)

type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// ReceiptOutbox is the local receipt history, read as an outbox.
type ReceiptOutbox interface {
	GetUnpublishedReceipts(ctx context.Context, limit int) ([]domain.IssuedReceipt, error)
	MarkReceiptPublished(ctx context.Context, requestID string) error
}

type RedemptionItem struct {
	ItemID    string `json:"item_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int    `json:"unit_price"`
}

type RedemptionEvent struct {
	RequestID     string           `json:"request_id"`
	TransactionID string           `json:"transaction_id"`
	UserID        int64            `json:"user_id,omitempty"`
	Agency        string           `json:"agency,omitempty"`
	Total         int              `json:"total"`
	Balance       int              `json:"balance"`
	Items         []RedemptionItem `json:"items"`
	RedeemedAt    time.Time        `json:"redeemed_at"`
}

// OutboxPoller publishes committed redemptions to Kafka. A receipt is marked
// published only after the broker accepted it, so delivery is at least once.
type OutboxPoller struct {
	timeout   time.Duration
	eventTick time.Duration
	batch     int
	repo      ReceiptOutbox
	writer    Writer
	logger    *slog.Logger
}

func NewOutboxPoller(repo ReceiptOutbox, logger *slog.Logger, topic string, brokers ...string) *OutboxPoller {
	if topic == "" {
		topic = DefaultTopic
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return newOutboxPoller(repo, w, logger)
}

func newOutboxPoller(repo ReceiptOutbox, w Writer, logger *slog.Logger) *OutboxPoller {
	return &OutboxPoller{
		timeout:   5 * time.Second,
		eventTick: time.Second,
		batch:     100,
		repo:      repo,
		writer:    w,
		logger:    logger,
	}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	defer eventTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublished(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

// processUnpublished returns how many receipts were published.
func (p *OutboxPoller) processUnpublished(ctx context.Context) int {
	receipts, err := p.repo.GetUnpublishedReceipts(ctx, p.batch)
	if err != nil {
		p.logger.ErrorContext(ctx, "failed to fetch unpublished receipts", "error", err)
		return 0
	}

	published := 0
	for _, issued := range receipts {
		if err := p.publish(ctx, issued); err != nil {
			p.logger.WarnContext(ctx, "failed to publish redemption", "request_id", issued.RequestID, "error", err)
			continue
		}
		if err := p.repo.MarkReceiptPublished(ctx, issued.RequestID); err != nil {
			p.logger.WarnContext(ctx, "failed to mark receipt published", "request_id", issued.RequestID, "error", err)
			continue
		}
		published++
	}
	return published
}

func (p *OutboxPoller) publish(ctx context.Context, issued domain.IssuedReceipt) error {
	payload, err := json.Marshal(NewRedemptionEvent(issued))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(issued.RequestID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}

func NewRedemptionEvent(issued domain.IssuedReceipt) RedemptionEvent {
	ev := RedemptionEvent{
		RequestID:     issued.RequestID,
		TransactionID: issued.ID(),
		Agency:        issued.Receipt.Agency,
		Total:         issued.Receipt.Total,
		Balance:       issued.Receipt.Balance,
		Items:         make([]RedemptionItem, 0, len(issued.Lines)),
		RedeemedAt:    issued.Receipt.Datetime,
	}
	if issued.Receipt.User != nil {
		ev.UserID = issued.Receipt.User.ID
	}
	for _, l := range issued.Lines {
		ev.Items = append(ev.Items, RedemptionItem{
			ItemID:    l.ItemID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
		})
	}
	return ev
}
