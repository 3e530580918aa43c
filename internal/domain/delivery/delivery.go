// Package delivery — отправка сообщений с повторами при ограничении скорости.
// Политика фиксированная: при сигнале RateLimit ждём ровно столько, сколько велел
// сервер (без джиттера, множителя и верхней границы), и повторяем, пока не исчерпан
// бюджет попыток. Любая другая ошибка возвращается сразу, без повторов.
// Ожидание блокирует только вызывающую горутину и прерывается отменой ctx.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"telegram-messenger/internal/domain/chat"
)

// DefaultMaxAttempts — бюджет попыток по умолчанию.
const DefaultMaxAttempts = 3

// Sender — одноразовая отправка. Реализуется chat.Client.
type Sender interface {
	Send(ctx context.Context, to chat.Recipient, text string) error
}

// Policy — бюджет попыток на один вызов. MaxAttempts >= 1.
type Policy struct {
	MaxAttempts int
}

// Validate проверяет ограничения политики.
func (p Policy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("delivery: max attempts must be >= 1, got %d", p.MaxAttempts)
	}
	return nil
}

// Result описывает успешную доставку.
type Result struct {
	Attempts int
	Waited   time.Duration // суммарное время ожидания по сигналам RateLimit
}

// Reason — причина неуспеха.
type Reason uint8

const (
	ReasonOther Reason = iota
	ReasonRetryBudgetExhausted
	ReasonCanceled
)

func (r Reason) String() string {
	switch r {
	case ReasonRetryBudgetExhausted:
		return "retry budget exhausted"
	case ReasonCanceled:
		return "canceled"
	default:
		return "other"
	}
}

// Failure — неуспешная доставка: причина, число сделанных попыток и последняя ошибка.
type Failure struct {
	Reason   Reason
	Attempts int
	Cause    error
}

func (f *Failure) Error() string {
	if f.Cause == nil {
		return fmt.Sprintf("delivery failed after %d attempt(s): %s", f.Attempts, f.Reason)
	}
	return fmt.Sprintf("delivery failed after %d attempt(s): %s: %v", f.Attempts, f.Reason, f.Cause)
}

func (f *Failure) Unwrap() error { return f.Cause }

// FailureReason извлекает причину из цепочки ошибок.
func FailureReason(err error) (Reason, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason, true
	}
	return ReasonOther, false
}

// SleepFunc ждёт d или отмену ctx. Подменяется в тестах.
type SleepFunc func(ctx context.Context, d time.Duration) error

type options struct {
	sleep    SleepFunc
	observer Observer
}

// Option настраивает SendWithRetry.
type Option func(*options)

// WithSleep подменяет функцию ожидания.
func WithSleep(fn SleepFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.sleep = fn
		}
	}
}

// WithObserver подключает наблюдателя за попытками и ожиданиями.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// SendWithRetry отправляет text адресату to не более policy.MaxAttempts раз.
//
// Алгоритм:
//  1. попытка sender.Send;
//  2. успех → Result сразу;
//  3. RateLimit(w) и попытки остались → ждём ровно w и повторяем;
//  4. RateLimit на последней попытке → Failure{ReasonRetryBudgetExhausted};
//  5. прочая ошибка → Failure{ReasonOther} без повторов;
//  6. отмена ctx в любой точке ожидания → Failure{ReasonCanceled}.
func SendWithRetry(
	ctx context.Context,
	sender Sender,
	to chat.Recipient,
	text string,
	policy Policy,
	opts ...Option,
) (Result, error) {
	if err := policy.Validate(); err != nil {
		return Result{}, err
	}
	if sender == nil {
		return Result{}, errors.New("delivery: sender is nil")
	}

	o := options{sleep: Sleep, observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	var waited time.Duration
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return Result{}, &Failure{Reason: ReasonCanceled, Attempts: attempt - 1, Cause: err}
		}

		o.observer.Attempt(to, attempt, policy.MaxAttempts)
		err := sender.Send(ctx, to, text)
		if err == nil {
			o.observer.Delivered(to, attempt)
			return Result{Attempts: attempt, Waited: waited}, nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return Result{}, &Failure{Reason: ReasonCanceled, Attempts: attempt, Cause: err}
		}

		signal, limited := chat.RateLimitOf(err)
		if !limited {
			o.observer.Failed(to, attempt, err)
			return Result{}, &Failure{Reason: ReasonOther, Attempts: attempt, Cause: err}
		}

		o.observer.RateLimited(to, attempt, policy.MaxAttempts, signal)
		if attempt == policy.MaxAttempts {
			o.observer.Exhausted(to, attempt, err)
			return Result{}, &Failure{Reason: ReasonRetryBudgetExhausted, Attempts: attempt, Cause: err}
		}

		wait := signal.Wait()
		o.observer.Waiting(to, wait)
		if sleepErr := o.sleep(ctx, wait); sleepErr != nil {
			return Result{}, &Failure{Reason: ReasonCanceled, Attempts: attempt, Cause: sleepErr}
		}
		waited += wait
	}

	// Недостижимо при MaxAttempts >= 1: цикл всегда завершается return.
	return Result{}, &Failure{Reason: ReasonRetryBudgetExhausted, Attempts: policy.MaxAttempts}
}

// Sleep ждёт d или отмену ctx. Нулевая/отрицательная длительность не блокирует.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer stopTimer(timer)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// stopTimer останавливает таймер и дренирует канал, если тик уже случился.
func stopTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
