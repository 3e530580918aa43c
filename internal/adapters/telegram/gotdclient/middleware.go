package gotdclient

import (
	"context"

	"github.com/gotd/td/bin"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
)

// bypassFor пропускает запросы, для которых skip вернул true, мимо inner.
// Так FLOOD_WAIT на отправке доходит до цикла повторов, а не гасится
// автоматическим ожиданием floodwait.
type bypassFor struct {
	inner telegram.Middleware
	skip  func(input bin.Encoder) bool
}

func (b bypassFor) Handle(next tg.Invoker) telegram.InvokeFunc {
	wrapped := b.inner.Handle(next)
	return func(ctx context.Context, input bin.Encoder, output bin.Decoder) error {
		if b.skip(input) {
			return next.Invoke(ctx, input, output)
		}
		return wrapped(ctx, input, output)
	}
}

// isSendRequest — запросы, повтором которых управляет delivery.
func isSendRequest(input bin.Encoder) bool {
	_, ok := input.(*tg.MessagesSendMessageRequest)
	return ok
}
