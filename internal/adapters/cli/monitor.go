package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/infra/pr"
)

// monitor печатает входящие сообщения, пока пользователь не нажмёт Enter или Ctrl+C.
func (s *Service) monitor(ctx context.Context) error {
	mctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pr.Println(rule)
	pr.Println("Monitoring all chats... (press Enter or Ctrl+C to stop)")
	pr.Println(rule)

	done := make(chan error, 1)
	go func() {
		done <- s.client.Monitor(mctx, func(m chat.IncomingMessage) {
			pr.Print(formatIncoming(m))
		})
	}()

	stop := make(chan error, 1)
	go func() {
		_, err := s.readLine("")
		stop <- err
	}()

	select {
	case err := <-stop:
		cancel()
		monErr := <-done
		if err != nil && !errors.Is(err, pr.ErrInterrupted) {
			return err
		}
		s.log.Info("Monitoring stopped by user")
		return monErr
	case err := <-done:
		if err != nil {
			pr.ErrPrintln("Monitoring stopped:", err)
			pr.Println("Press Enter to return to the menu.")
		}
		<-stop
		return nil
	}
}

func formatIncoming(m chat.IncomingMessage) string {
	text := m.Text
	if text == "" {
		text = "[Media/Sticker]"
	}
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("New Message\n")
	fmt.Fprintf(&b, "From: %s (ID: %d)\n", m.SenderName, m.SenderID)
	fmt.Fprintf(&b, "Chat: %s\n", m.ChatName)
	fmt.Fprintf(&b, "Message: %s\n", text)
	b.WriteString(rule + "\n")
	return b.String()
}
