// Package authflow описывает сценарий входа как явный конечный автомат:
// Unauthenticated → CodeRequested → (AwaitingSecondFactor) → Authorized, либо Failed.
// Автомат не выполняет ввод-вывод сам: телефон, код и пароль приходят из внедрённого
// Credentials, а сетевые шаги выполняет Authorizer. Неверные учётные данные
// автоматически не повторяются — нужен новый вызов Establish.
package authflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-messenger/internal/domain/chat"
)

// State — состояние сессии авторизации.
type State uint8

const (
	StateUnauthenticated State = iota
	StateCodeRequested
	StateAwaitingSecondFactor
	StateAuthorized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "Unauthenticated"
	case StateCodeRequested:
		return "CodeRequested"
	case StateAwaitingSecondFactor:
		return "AwaitingSecondFactor"
	case StateAuthorized:
		return "Authorized"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal сообщает, что из состояния переходов больше нет.
func (s State) Terminal() bool { return s == StateAuthorized || s == StateFailed }

// Stage — шаг, на котором сорвалась авторизация.
type Stage uint8

const (
	StageStatus Stage = iota
	StagePhone
	StageCode
	StageSecondFactor
)

func (s Stage) String() string {
	switch s {
	case StagePhone:
		return "phone"
	case StageCode:
		return "code"
	case StageSecondFactor:
		return "second factor"
	default:
		return "status"
	}
}

// Authorizer — сетевые шаги входа. Реализуется chat.Client.
type Authorizer interface {
	IsAuthorized(ctx context.Context) (bool, error)
	RequestCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) error
	SignInPassword(ctx context.Context, password string) error
}

// Credentials — источник учётных данных (консоль, UI, тестовый стаб).
type Credentials interface {
	Phone(ctx context.Context) (string, error)
	Code(ctx context.Context) (string, error)
	Password(ctx context.Context) (string, error)
}

// ErrEmptyCredential возвращается, когда источник отдал пустое значение.
var ErrEmptyCredential = errors.New("credential is empty")

// Failure — ошибка авторизации с указанием шага. Значение учётных данных в текст не попадает.
type Failure struct {
	Stage Stage
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("authentication failed at %s stage: %v", f.Stage, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Session — одна попытка установить авторизованное соединение.
// Создаётся на каждое подключение и выбрасывается после Establish.
type Session struct {
	authorizer  Authorizer
	credentials Credentials
	observer    Observer

	state       State
	phone       string
	pendingCode string
	history     []State
	interactive bool
}

// Option настраивает Session.
type Option func(*Session)

// WithObserver подключает наблюдателя переходов.
func WithObserver(obs Observer) Option {
	return func(s *Session) {
		if obs != nil {
			s.observer = obs
		}
	}
}

// NewSession создаёт сессию в состоянии Unauthenticated.
func NewSession(a Authorizer, c Credentials, opts ...Option) *Session {
	s := &Session{
		authorizer:  a,
		credentials: c,
		observer:    nopObserver{},
		state:       StateUnauthenticated,
		history:     []State{StateUnauthenticated},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Establish — короткий путь: NewSession + Run.
func Establish(ctx context.Context, a Authorizer, c Credentials, opts ...Option) (*Session, error) {
	s := NewSession(a, c, opts...)
	return s, s.Run(ctx)
}

// State возвращает текущее состояние.
func (s *Session) State() State { return s.state }

// History возвращает пройденные состояния по порядку, начиная с Unauthenticated.
func (s *Session) History() []State {
	out := make([]State, len(s.history))
	copy(out, s.history)
	return out
}

// Interactive сообщает, понадобился ли ввод учётных данных (false — восстановлена сохранённая сессия).
func (s *Session) Interactive() bool { return s.interactive }

// Run прогоняет автомат до терминального состояния. Повторный вызов на завершённой
// сессии возвращает ошибку: для новой попытки нужна новая сессия.
func (s *Session) Run(ctx context.Context) error {
	if s.state != StateUnauthenticated {
		return fmt.Errorf("authflow: session already in state %s", s.state)
	}
	if s.authorizer == nil || s.credentials == nil {
		return s.fail(StageStatus, errors.New("authflow: authorizer and credentials are required"))
	}

	authorized, err := s.authorizer.IsAuthorized(ctx)
	if err != nil {
		return s.fail(StageStatus, err)
	}
	if authorized {
		s.observer.SessionRestored()
		s.advance(StateAuthorized)
		return nil
	}

	s.interactive = true
	if err := s.requestCode(ctx); err != nil {
		return err
	}

	err = s.signIn(ctx)
	switch {
	case err == nil:
		s.advance(StateAuthorized)
		return nil
	case chat.KindOf(err) == chat.KindSecondFactorRequired:
		s.observer.SecondFactorRequired()
		s.advance(StateAwaitingSecondFactor)
	default:
		if c, ok := chat.CredentialOf(err); ok && c == chat.CredentialPhone {
			return s.fail(StagePhone, err)
		}
		return s.fail(StageCode, err)
	}

	if err := s.signInPassword(ctx); err != nil {
		return err
	}
	s.advance(StateAuthorized)
	return nil
}

func (s *Session) requestCode(ctx context.Context) error {
	phone, err := s.credentials.Phone(ctx)
	if err != nil {
		return s.fail(StagePhone, err)
	}
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return s.fail(StagePhone, fmt.Errorf("phone number: %w", ErrEmptyCredential))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(StagePhone, err)
	}

	s.observer.CodeRequested(chat.MaskPhone(phone))
	if err := s.authorizer.RequestCode(ctx, phone); err != nil {
		return s.fail(StagePhone, err)
	}
	s.phone = phone
	s.advance(StateCodeRequested)
	return nil
}

func (s *Session) signIn(ctx context.Context) error {
	code, err := s.credentials.Code(ctx)
	if err != nil {
		return err
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("verification code: %w", ErrEmptyCredential)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pendingCode = code
	err = s.authorizer.SignIn(ctx, s.phone, code)
	s.pendingCode = ""
	return err
}

func (s *Session) signInPassword(ctx context.Context) error {
	password, err := s.credentials.Password(ctx)
	if err != nil {
		return s.fail(StageSecondFactor, err)
	}
	if password == "" {
		return s.fail(StageSecondFactor, fmt.Errorf("password: %w", ErrEmptyCredential))
	}
	if err := ctx.Err(); err != nil {
		return s.fail(StageSecondFactor, err)
	}
	if err := s.authorizer.SignInPassword(ctx, password); err != nil {
		return s.fail(StageSecondFactor, err)
	}
	return nil
}

// advance выполняет монотонный переход вперёд. Переходы назад и из терминальных
// состояний игнорируются.
func (s *Session) advance(to State) {
	if s.state.Terminal() || to <= s.state {
		return
	}
	from := s.state
	s.state = to
	s.history = append(s.history, to)
	s.observer.Transition(from, to)
}

// fail переводит сессию в Failed и возвращает *Failure.
func (s *Session) fail(stage Stage, err error) error {
	failure := &Failure{Stage: stage, Err: err}
	if s.state != StateFailed {
		from := s.state
		s.state = StateFailed
		s.history = append(s.history, StateFailed)
		s.observer.Transition(from, StateFailed)
	}
	s.observer.Failed(stage, err)
	return failure
}
