// Package cli — интерактивное меню терминального клиента. Команды выбираются
// номером (1–6) или именем; каждая работает через chat.Client, а отправка идёт
// через delivery.SendWithRetry. Ошибка одной команды печатается и не завершает меню.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"telegram-messenger/internal/domain/chat"
	"telegram-messenger/internal/domain/delivery"
	"telegram-messenger/internal/infra/pr"
	versioninfo "telegram-messenger/internal/support/version"

	"go.uber.org/zap"
)

// commandDescriptor описывает одну команду меню: номер, имя и описание для help.
type commandDescriptor struct {
	key         string
	name        string
	description string
}

// commandDescriptors — реестр команд. Имена должны совпадать с кейсами в handleCommand().
var commandDescriptors = []commandDescriptor{
	{key: "1", name: "send", description: "Send a message"},
	{key: "2", name: "list", description: "List recent chats [limit]"},
	{key: "3", name: "monitor", description: "Monitor chats in real time"},
	{key: "4", name: "dump", description: "Dump a message [chat] [id] [--raw]"},
	{key: "5", name: "entity", description: "Show user/chat/channel info [identifier]"},
	{key: "6", name: "exit", description: "Exit"},
	{name: "whoami", description: "Display information about the current account"},
	{name: "version", description: "Print client version"},
	{name: "help", description: "Show available commands"},
}

const ruleWidth = 70

var rule = strings.Repeat("=", ruleWidth)

// Options — зависимости меню.
type Options struct {
	Client          chat.Client
	Logger          *zap.Logger
	DialogsLimit    int
	SendMaxAttempts int
	// ReadLine читает строку ввода; по умолчанию pr.ReadLine.
	ReadLine func(prompt string) (string, error)
}

// Service — цикл меню поверх авторизованного клиента.
type Service struct {
	client       chat.Client
	log          *zap.Logger
	dialogsLimit int
	policy       delivery.Policy
	readLine     func(prompt string) (string, error)
}

func NewService(opts Options) (*Service, error) {
	if opts.Client == nil {
		return nil, errors.New("cli: client is nil")
	}
	policy := delivery.Policy{MaxAttempts: opts.SendMaxAttempts}
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if opts.DialogsLimit <= 0 {
		return nil, fmt.Errorf("cli: invalid dialogs limit %d", opts.DialogsLimit)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	readLine := opts.ReadLine
	if readLine == nil {
		readLine = pr.ReadLine
	}
	return &Service{
		client:       opts.Client,
		log:          log,
		dialogsLimit: opts.DialogsLimit,
		policy:       policy,
		readLine:     readLine,
	}, nil
}

// Run показывает меню до команды exit, EOF, Ctrl+C в меню или отмены ctx.
// Возвращает ошибку только при сбое ввода.
func (s *Service) Run(ctx context.Context) error {
	s.log.Debug("CLI menu started")
	for {
		if ctx.Err() != nil {
			return nil
		}
		printMenu()
		line, err := s.readLine("Enter your choice (1-6): ")
		if errors.Is(err, pr.ErrInterrupted) || errors.Is(err, io.EOF) {
			s.log.Info("Menu closed by user")
			return nil
		}
		if err != nil {
			return fmt.Errorf("read menu choice: %w", err)
		}
		if s.handleCommand(ctx, line) {
			s.log.Info("User requested exit")
			pr.Println("Goodbye!")
			return nil
		}
	}
}

// handleCommand выполняет одну строку меню. Возвращает true, если нужно выйти.
func (s *Service) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	name, args := resolveCommand(fields[0]), fields[1:]

	var err error
	switch name {
	case "send":
		err = s.sendInteractive(ctx)
	case "list":
		err = s.listChats(ctx, args)
	case "monitor":
		err = s.monitor(ctx)
	case "dump":
		err = s.dumpMessage(ctx, args)
	case "entity":
		err = s.entityInfo(ctx, args)
	case "whoami":
		err = s.whoAmI(ctx)
	case "version":
		pr.Println("telegram-messenger", versioninfo.String())
	case "help":
		printCommandHelp()
	case "exit":
		return true
	default:
		pr.Println("Invalid choice. Please try again.")
	}

	switch {
	case err == nil:
	case errors.Is(err, pr.ErrInterrupted):
		s.log.Info("Operation interrupted by user", zap.String("command", name))
		pr.Println("Operation cancelled")
	case errors.Is(err, io.EOF):
		return true
	case ctx.Err() != nil:
		return true
	case errors.Is(err, chat.ErrPeerNotFound):
		s.log.Warn("Peer not found", zap.String("command", name), zap.Error(err))
		pr.Println("Not found:", err)
	default:
		s.log.Error("Command failed", zap.String("command", name), zap.Error(err))
		pr.ErrPrintln("Error:", err)
	}
	return false
}

// resolveCommand переводит номер пункта в имя команды; имена регистронезависимы.
func resolveCommand(token string) string {
	token = strings.ToLower(token)
	for _, d := range commandDescriptors {
		if d.key != "" && d.key == token {
			return d.name
		}
	}
	return token
}

func printMenu() {
	pr.Println()
	pr.Println(rule)
	pr.Println("TELEGRAM TERMINAL CLIENT")
	pr.Println(rule)
	for _, d := range commandDescriptors {
		if d.key == "" {
			continue
		}
		pr.Printf("%s. %s\n", d.key, d.description)
	}
	pr.Println(rule)
}

func printCommandHelp() {
	for _, text := range buildCommandHelpLines(commandDescriptors) {
		pr.Println(text)
	}
}

// buildCommandHelpLines генерирует строки помощи вида "<key> <name> - <description>".
func buildCommandHelpLines(descriptors []commandDescriptor) []string {
	lines := make([]string, 0, len(descriptors)+1)
	lines = append(lines, "Available commands:")
	for _, d := range descriptors {
		lines = append(lines, fmt.Sprintf("  %-2s %-8s - %s", d.key, d.name, d.description))
	}
	return lines
}

func (s *Service) whoAmI(ctx context.Context) error {
	self, err := s.client.Self(ctx)
	if err != nil {
		return fmt.Errorf("failed to get self: %w", err)
	}
	pr.Println("You are:", self)
	return nil
}

func (s *Service) listChats(ctx context.Context, args []string) error {
	raw := ""
	if len(args) > 0 {
		raw = args[0]
	} else {
		line, err := s.readLine(fmt.Sprintf("Number of chats to show (default %d): ", s.dialogsLimit))
		if err != nil {
			return err
		}
		raw = line
	}
	limit, err := parseLimit(raw, s.dialogsLimit)
	if err != nil {
		return err
	}

	s.log.Info("Fetching recent chats", zap.Int("limit", limit))
	chats, err := s.client.ListRecentChats(ctx, limit)
	if err != nil {
		return err
	}
	for _, line := range renderChatTable(chats) {
		pr.Println(line)
	}
	s.log.Info("Displayed chats", zap.Int("count", len(chats)))
	return nil
}

// parseLimit: пусто — def, иначе положительное целое.
func parseLimit(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid number %q", raw)
	}
	return n, nil
}

func (s *Service) dumpMessage(ctx context.Context, args []string) error {
	raw := false
	rest := args[:0:0]
	for _, a := range args {
		if a == "--raw" {
			raw = true
			continue
		}
		rest = append(rest, a)
	}

	chatRef, idStr, err := s.argsOrPrompt(rest, "Enter chat identifier (username/ID): ", "Enter message ID: ")
	if err != nil {
		return err
	}
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid message id %q", idStr)
	}

	msg, err := s.client.GetMessage(ctx, chatRef, id)
	if err != nil {
		if errors.Is(err, chat.ErrPeerNotFound) {
			return fmt.Errorf("chat %q: %w", chatRef, err)
		}
		return err
	}
	if msg == nil {
		s.log.Warn("Message not found", zap.Int("id", id), zap.String("chat", chatRef))
		pr.Printf("Message %d not found\n", id)
		return nil
	}

	pr.Println(rule)
	pr.Println("RAW MESSAGE OBJECT")
	pr.Println(rule)
	if raw {
		pr.Println(pr.Pf(msg.Raw))
	} else {
		pr.Println(messageJSON(msg))
	}
	pr.Println(rule)
	s.log.Info("Dumped message", zap.Int("id", id))
	return nil
}

func (s *Service) entityInfo(ctx context.Context, args []string) error {
	var identifier string
	if len(args) > 0 {
		identifier = args[0]
	} else {
		line, err := s.readLine("Enter username, phone, or user ID: ")
		if err != nil {
			return err
		}
		identifier = line
	}
	if identifier == "" {
		return errors.New("identifier must not be empty")
	}

	info, err := s.client.GetEntity(ctx, identifier)
	if err != nil {
		if errors.Is(err, chat.ErrPeerNotFound) {
			return fmt.Errorf("no user, chat or channel matches %q: %w", identifier, err)
		}
		return err
	}
	pr.Println(rule)
	pr.Println("ENTITY INFORMATION")
	pr.Println(rule)
	pr.Println(entityJSON(info))
	pr.Println(rule)
	s.log.Info("Retrieved entity info", zap.Int64("id", info.ID), zap.String("type", info.Type))
	return nil
}

// argsOrPrompt берёт два значения из аргументов, недостающие спрашивает.
func (s *Service) argsOrPrompt(args []string, firstPrompt, secondPrompt string) (string, string, error) {
	values := make([]string, 2)
	copy(values, args)
	prompts := []string{firstPrompt, secondPrompt}
	for i := range values {
		if values[i] != "" {
			continue
		}
		line, err := s.readLine(prompts[i])
		if err != nil {
			return "", "", err
		}
		if line == "" {
			return "", "", errors.New("value must not be empty")
		}
		values[i] = line
	}
	return values[0], values[1], nil
}
