package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/domain/delivery"
	"telegram-messenger/internal/infra/pr"

	"go.uber.org/zap"
)

// sendInteractive — цикл «адресат → текст → отправка → ещё?».
func (s *Service) sendInteractive(ctx context.Context) error {
	for {
		to, err := s.chooseRecipient()
		if err != nil {
			return err
		}

		pr.Println(rule)
		text, err := s.readLine("Enter your message (or 'quit' to exit): ")
		pr.Println(rule)
		if err != nil {
			return err
		}
		if isQuit(text) {
			s.log.Info("Exiting message sender")
			return nil
		}
		if text == "" {
			s.log.Warn("Message cannot be empty")
			pr.Println("Message cannot be empty.")
			continue
		}

		res, err := delivery.SendWithRetry(ctx, s.client, to, text, s.policy,
			delivery.WithObserver(delivery.NewLogObserver(s.log)))
		pr.Println(deliveryOutcome(res, err))
		if ctx.Err() != nil {
			return ctx.Err()
		}

		again, err := s.readLine("Send another message? (y/n): ")
		if err != nil {
			return err
		}
		if !strings.EqualFold(again, "y") {
			return nil
		}
	}
}

func (s *Service) chooseRecipient() (chat.Recipient, error) {
	pr.Println(rule)
	pr.Println("How would you like to specify the recipient?")
	pr.Println("1. Username (e.g., @username)")
	pr.Println("2. Phone number (e.g., +1234567890)")
	pr.Println("3. User ID (numeric)")
	pr.Println(rule)

	choice, err := s.readLine("Enter your choice (1-3): ")
	if err != nil {
		return chat.Recipient{}, err
	}
	prompt, known := recipientPrompt(choice)
	if !known {
		s.log.Warn("Invalid recipient choice, defaulting to username", zap.String("choice", choice))
	}
	value, err := s.readLine(prompt)
	if err != nil {
		return chat.Recipient{}, err
	}
	to, err := parseRecipient(choice, value)
	if err != nil {
		return chat.Recipient{}, err
	}
	s.log.Debug("Recipient selected", zap.Stringer("recipient", to))
	return to, nil
}

// recipientPrompt возвращает приглашение для выбранного способа; false — способ неизвестен.
func recipientPrompt(choice string) (string, bool) {
	switch choice {
	case "1":
		return "Enter username (with or without @): ", true
	case "2":
		return "Enter phone number (with country code): ", true
	case "3":
		return "Enter user ID: ", true
	default:
		return "Enter username: ", false
	}
}

// parseRecipient строит адресата. Неизвестный choice трактуется как username.
func parseRecipient(choice, value string) (chat.Recipient, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "@" {
		return chat.Recipient{}, errors.New("recipient must not be empty")
	}
	switch choice {
	case "2":
		return chat.Phone(value), nil
	case "3":
		id, err := strconv.ParseInt(value, 10, 64)
		if err != nil || id <= 0 {
			return chat.Recipient{}, fmt.Errorf("invalid user id %q", value)
		}
		return chat.UserID(id), nil
	default:
		return chat.Username(value), nil
	}
}

func isQuit(text string) bool {
	switch strings.ToLower(text) {
	case "quit", "exit", "q":
		return true
	default:
		return false
	}
}

// deliveryOutcome — итоговая строка для пользователя: число попыток и причина отказа.
func deliveryOutcome(res delivery.Result, err error) string {
	if err == nil {
		if res.Attempts > 1 {
			return fmt.Sprintf("Message delivered successfully after %d attempts.", res.Attempts)
		}
		return "Message delivered successfully!"
	}
	var failure *delivery.Failure
	if !errors.As(err, &failure) {
		return fmt.Sprintf("Failed to send message: %v", err)
	}
	switch failure.Reason {
	case delivery.ReasonRetryBudgetExhausted:
		return fmt.Sprintf("Failed to send message: rate limit persisted after %d attempt(s): %v",
			failure.Attempts, failure.Cause)
	case delivery.ReasonCanceled:
		return "Sending cancelled."
	default:
		return fmt.Sprintf("Failed to send message after %d attempt(s): %v", failure.Attempts, failure.Cause)
	}
}
