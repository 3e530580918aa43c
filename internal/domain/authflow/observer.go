package authflow

import (
	"go.uber.org/zap"

	"telegram-messenger/internal/domain/chat"
)

// Observer получает события авторизации. Учётные данные сюда не передаются,
// кроме маскированного номера телефона.
type Observer interface {
	Transition(from, to State)
	SessionRestored()
	CodeRequested(maskedPhone string)
	SecondFactorRequired()
	Failed(stage Stage, err error)
}

type nopObserver struct{}

func (nopObserver) Transition(State, State) {}
func (nopObserver) SessionRestored()        {}
func (nopObserver) CodeRequested(string)    {}
func (nopObserver) SecondFactorRequired()   {}
func (nopObserver) Failed(Stage, error)     {}

// LogObserver пишет ход авторизации в zap.
type LogObserver struct {
	log *zap.Logger
}

func NewLogObserver(log *zap.Logger) *LogObserver {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogObserver{log: log}
}

func (o *LogObserver) Transition(from, to State) {
	o.log.Debug("auth state", zap.Stringer("from", from), zap.Stringer("to", to))
	if to == StateAuthorized {
		o.log.Info("Authentication successful")
	}
}

func (o *LogObserver) SessionRestored() {
	o.log.Info("Connected using existing session")
}

func (o *LogObserver) CodeRequested(maskedPhone string) {
	o.log.Info("Sending code", zap.String("phone", maskedPhone))
}

func (o *LogObserver) SecondFactorRequired() {
	o.log.Warn("Two-factor authentication enabled")
}

func (o *LogObserver) Failed(stage Stage, err error) {
	fields := []zap.Field{zap.Stringer("stage", stage), zap.Stringer("kind", chat.KindOf(err))}
	if c, ok := chat.CredentialOf(err); ok {
		fields = append(fields, zap.Stringer("credential", c))
	}
	o.log.Error("Authentication failed", append(fields, zap.Error(err))...)
}
