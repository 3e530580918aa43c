package chat

import (
	"errors"
	"fmt"
	"time"
)

// ErrPeerNotFound — собеседник не найден ни в кеше, ни на сервере.
// Приходит внутри *Error вида KindOther.
var ErrPeerNotFound = errors.New("peer not found")

// ErrorKind — закрытый набор исходов операций клиента. Все места обработки
// ошибок сопоставляют именно Kind, а не типы ошибок конкретной библиотеки.
type ErrorKind uint8

const (
	// KindOther — любая прочая ошибка: терминальна, без повторов.
	KindOther ErrorKind = iota
	// KindRateLimit — сервер отклонил запрос и велел подождать (FLOOD_WAIT).
	KindRateLimit
	// KindInvalidCredential — неверный телефон, код или пароль.
	KindInvalidCredential
	// KindSecondFactorRequired — не ошибка, а переход к вводу пароля 2FA.
	KindSecondFactorRequired
	// KindTransport — сеть/соединение.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimit:
		return "rate_limit"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindSecondFactorRequired:
		return "second_factor_required"
	case KindTransport:
		return "transport"
	default:
		return "other"
	}
}

// Credential указывает, какое именно значение отвергнуто сервером.
type Credential uint8

const (
	CredentialNone Credential = iota
	CredentialPhone
	CredentialCode
	CredentialPassword
)

func (c Credential) String() string {
	switch c {
	case CredentialPhone:
		return "phone"
	case CredentialCode:
		return "code"
	case CredentialPassword:
		return "password"
	default:
		return "none"
	}
}

// RateLimitSignal — «операция отклонена, повторить через Seconds секунд».
type RateLimitSignal struct {
	Seconds int
}

// Wait переводит сигнал в длительность ожидания.
func (s RateLimitSignal) Wait() time.Duration {
	if s.Seconds <= 0 {
		return 0
	}
	return time.Duration(s.Seconds) * time.Second
}

// Error — типизированная ошибка клиента.
type Error struct {
	Kind       ErrorKind
	RateLimit  RateLimitSignal // только для KindRateLimit
	Credential Credential      // только для KindInvalidCredential
	Err        error           // исходная ошибка библиотеки, может быть nil
}

func (e *Error) Error() string {
	var msg string
	switch e.Kind {
	case KindRateLimit:
		msg = fmt.Sprintf("rate limited: retry after %ds", e.RateLimit.Seconds)
	case KindInvalidCredential:
		msg = fmt.Sprintf("invalid %s", e.Credential)
	case KindSecondFactorRequired:
		msg = "second factor required"
	case KindTransport:
		msg = "transport error"
	default:
		msg = "request failed"
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// RateLimited создаёт сигнал ограничения скорости. Отрицательное ожидание приводится к нулю.
func RateLimited(seconds int, cause error) *Error {
	if seconds < 0 {
		seconds = 0
	}
	return &Error{Kind: KindRateLimit, RateLimit: RateLimitSignal{Seconds: seconds}, Err: cause}
}

func InvalidCredential(c Credential, cause error) *Error {
	return &Error{Kind: KindInvalidCredential, Credential: c, Err: cause}
}

func SecondFactorRequired(cause error) *Error {
	return &Error{Kind: KindSecondFactorRequired, Err: cause}
}

func Transport(cause error) *Error {
	return &Error{Kind: KindTransport, Err: cause}
}

func Other(cause error) *Error {
	return &Error{Kind: KindOther, Err: cause}
}

// KindOf возвращает вид ошибки. Ошибки, не обёрнутые в *Error, считаются KindOther.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindOther
}

// RateLimitOf извлекает сигнал ограничения скорости из цепочки ошибок.
func RateLimitOf(err error) (RateLimitSignal, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindRateLimit {
		return e.RateLimit, true
	}
	return RateLimitSignal{}, false
}

// CredentialOf возвращает отвергнутый тип учётных данных.
func CredentialOf(err error) (Credential, bool) {
	var e *Error
	if errors.As(err, &e) && e.Kind == KindInvalidCredential {
		return e.Credential, true
	}
	return CredentialNone, false
}
