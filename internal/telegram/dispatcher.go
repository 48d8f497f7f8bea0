package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/coach-bot/internal/domain"
	"github.com/ykvlv/coach-bot/internal/metrics"
)

// Sender is the part of *tgbotapi.BotAPI the dispatcher uses.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type outgoing struct {
	userID int64
	chatID int64
	kind   string
	text   string
}

// Dispatcher delivers reminders and adaptation notices through the Bot API.
// Enqueueing never blocks; a full queue drops the message. Delivery is
// best effort and failures are only logged.
type Dispatcher struct {
	bot     Sender
	log     *zap.Logger
	metrics *metrics.Metrics
	queue   chan outgoing
}

func NewDispatcher(bot Sender, log *zap.Logger, m *metrics.Metrics, size int) *Dispatcher {
	if size <= 0 {
		size = 256
	}
	return &Dispatcher{bot: bot, log: log, metrics: m, queue: make(chan outgoing, size)}
}

// Fire enqueues a reminder.
func (d *Dispatcher) Fire(r domain.Reminder) {
	d.enqueue(outgoing{userID: r.UserID, chatID: r.ChatID, kind: string(r.Kind), text: ReminderText(r)})
}

// PublishAdaptation enqueues a notice about an applied adaptation.
func (d *Dispatcher) PublishAdaptation(_ context.Context, ev domain.AdaptationEvent) {
	d.enqueue(outgoing{userID: ev.UserID, chatID: ev.ChatID, kind: "adaptation", text: AdaptationText(ev)})
}

func (d *Dispatcher) enqueue(m outgoing) {
	if m.chatID == 0 || m.text == "" {
		d.log.Warn("undeliverable message dropped",
			zap.Int64("userID", m.userID), zap.String("kind", m.kind))
		d.metrics.Notification(m.kind, "invalid")
		return
	}
	select {
	case d.queue <- m:
	default:
		d.log.Warn("dispatch queue full, message dropped",
			zap.Int64("userID", m.userID), zap.String("kind", m.kind))
		d.metrics.Notification(m.kind, "dropped")
	}
}

// Run sends queued messages until ctx is canceled.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.log.Info("dispatcher stopping", zap.Int("pending", len(d.queue)))
			return
		case m := <-d.queue:
			d.send(m)
		}
	}
}

func (d *Dispatcher) send(m outgoing) {
	if _, err := d.bot.Send(tgbotapi.NewMessage(m.chatID, m.text)); err != nil {
		d.log.Warn("send failed",
			zap.Int64("userID", m.userID),
			zap.Int64("chatID", m.chatID),
			zap.String("kind", m.kind),
			zap.Error(err),
		)
		d.metrics.Notification(m.kind, "failed")
		return
	}
	d.metrics.Notification(m.kind, "sent")
}
