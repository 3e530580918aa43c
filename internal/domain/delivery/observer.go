package delivery

import (
	"time"

	"telegram-messenger/internal/domain/chat"

	"go.uber.org/zap"
)

// Observer получает события цикла доставки. Только для наблюдения:
// на решения о повторе не влияет.
type Observer interface {
	Attempt(to chat.Recipient, attempt, maxAttempts int)
	RateLimited(to chat.Recipient, attempt, maxAttempts int, signal chat.RateLimitSignal)
	Waiting(to chat.Recipient, d time.Duration)
	Delivered(to chat.Recipient, attempts int)
	Failed(to chat.Recipient, attempt int, err error)
	Exhausted(to chat.Recipient, attempts int, err error)
}

type nopObserver struct{}

func (nopObserver) Attempt(chat.Recipient, int, int)                           {}
func (nopObserver) RateLimited(chat.Recipient, int, int, chat.RateLimitSignal) {}
func (nopObserver) Waiting(chat.Recipient, time.Duration)                      {}
func (nopObserver) Delivered(chat.Recipient, int)                              {}
func (nopObserver) Failed(chat.Recipient, int, error)                          {}
func (nopObserver) Exhausted(chat.Recipient, int, error)                       {}

// LogObserver пишет события доставки в zap.
type LogObserver struct {
	log *zap.Logger
}

// NewLogObserver создаёт наблюдателя поверх log; nil даёт no-op логгер.
func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) Attempt(to chat.Recipient, attempt, maxAttempts int) {
	o.log.Debug("send attempt",
		zap.Stringer("recipient", to),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", maxAttempts),
	)
}

func (o *LogObserver) RateLimited(to chat.Recipient, attempt, maxAttempts int, signal chat.RateLimitSignal) {
	o.log.Warn("FloodWait triggered",
		zap.Stringer("recipient", to),
		zap.Int("wait_seconds", signal.Seconds),
		zap.Int("attempt", attempt),
		zap.Int("max_attempts", maxAttempts),
	)
}

func (o *LogObserver) Waiting(to chat.Recipient, d time.Duration) {
	o.log.Info("sleeping before retry", zap.Stringer("recipient", to), zap.Duration("wait", d))
}

func (o *LogObserver) Delivered(to chat.Recipient, attempts int) {
	o.log.Info("message sent", zap.Stringer("recipient", to), zap.Int("attempts", attempts))
}

func (o *LogObserver) Failed(to chat.Recipient, attempt int, err error) {
	o.log.Error("send failed",
		zap.Stringer("recipient", to),
		zap.Int("attempt", attempt),
		zap.Stringer("kind", chat.KindOf(err)),
		zap.Error(err),
	)
}

func (o *LogObserver) Exhausted(to chat.Recipient, attempts int, err error) {
	o.log.Error("max retries exceeded, message not sent",
		zap.Stringer("recipient", to),
		zap.Int("attempts", attempts),
		zap.Error(err),
	)
}
