// Package chat — доменная модель терминального клиента: получатели, сводки диалогов,
// сообщения и сущности, а также контракт внешнего клиента (Client), через который
// ядро (доставка и авторизация) работает с сетью. Сам пакет сетевых вызовов не делает.
package chat

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// RecipientKind различает варианты адресата.
type RecipientKind uint8

const (
	RecipientUsername RecipientKind = iota + 1
	RecipientPhone
	RecipientUserID
)

func (k RecipientKind) String() string {
	switch k {
	case RecipientUsername:
		return "username"
	case RecipientPhone:
		return "phone"
	case RecipientUserID:
		return "user_id"
	default:
		return "unknown"
	}
}

// Recipient — адресат сообщения: ровно один из вариантов Username/Phone/UserID.
// Значение неизменяемое, создаётся через конструкторы ниже.
type Recipient struct {
	kind     RecipientKind
	username string
	phone    string
	userID   int64
}

// Username создаёт адресата по @username. Ведущий '@' добавляется, если его нет.
func Username(name string) Recipient {
	name = strings.TrimSpace(name)
	if !strings.HasPrefix(name, "@") {
		name = "@" + name
	}
	return Recipient{kind: RecipientUsername, username: name}
}

// Phone создаёт адресата по номеру телефона (ожидается E.164, формат не проверяется).
func Phone(phone string) Recipient {
	return Recipient{kind: RecipientPhone, phone: strings.TrimSpace(phone)}
}

// UserID создаёт адресата по числовому идентификатору пользователя.
func UserID(id int64) Recipient {
	return Recipient{kind: RecipientUserID, userID: id}
}

func (r Recipient) Kind() RecipientKind { return r.kind }

// Username возвращает имя пользователя вместе с '@'.
func (r Recipient) Username() (string, bool) { return r.username, r.kind == RecipientUsername }

func (r Recipient) Phone() (string, bool) { return r.phone, r.kind == RecipientPhone }

func (r Recipient) UserID() (int64, bool) { return r.userID, r.kind == RecipientUserID }

// IsZero сообщает, что адресат не был задан.
func (r Recipient) IsZero() bool { return r.kind == 0 }

// String возвращает читаемое представление. Телефон маскируется, чтобы не попадать в логи целиком.
func (r Recipient) String() string {
	switch r.kind {
	case RecipientUsername:
		return r.username
	case RecipientPhone:
		return MaskPhone(r.phone)
	case RecipientUserID:
		return strconv.FormatInt(r.userID, 10)
	default:
		return "<none>"
	}
}

// MaskPhone оставляет видимыми только последние две цифры номера.
func MaskPhone(phone string) string {
	const visible = 2
	runes := []rune(phone)
	if len(runes) <= visible {
		return strings.Repeat("*", len(runes))
	}
	return strings.Repeat("*", len(runes)-visible) + string(runes[len(runes)-visible:])
}

// PeerType — тип диалога в списке чатов.
type PeerType string

const (
	PeerUser    PeerType = "User"
	PeerGroup   PeerType = "Group"
	PeerChannel PeerType = "Channel"
	PeerUnknown PeerType = "Unknown"
)

// ChatSummary — строка списка недавних диалогов.
type ChatSummary struct {
	ID       int64
	Name     string
	Username string // без '@', пусто если нет
	Type     PeerType
}

// Message — упрощённое представление сообщения для дампа.
type Message struct {
	ID       int
	Date     time.Time
	Text     string
	FromID   string
	PeerID   string
	FwdFrom  string
	ViaBotID int64
	ReplyTo  string
	Media    string // имя типа медиа или пусто
	Entities []string
	Views    int
	EditDate time.Time
	Raw      any // исходный объект библиотеки, для отладочного вывода
}

// EntityInfo — сведения о пользователе/чате/канале. Незаполненные указатели означают «нет данных».
type EntityInfo struct {
	ID         int64
	Type       string
	Username   string
	FirstName  string
	LastName   string
	Phone      string
	Bot        *bool
	Verified   *bool
	Restricted *bool
	Scam       *bool
	Fake       *bool
}

// IncomingMessage — событие нового сообщения для режима мониторинга.
type IncomingMessage struct {
	SenderID   int64
	SenderName string
	ChatName   string
	Text       string
}

// Self — краткая информация о текущем аккаунте.
type Self struct {
	ID        int64
	FirstName string
	LastName  string
	Username  string
}

// DisplayName собирает имя для вывода; "<unknown>" если имени нет.
func (s Self) DisplayName() string {
	name := strings.TrimSpace(s.FirstName + " " + s.LastName)
	if name == "" {
		return "<unknown>"
	}
	return name
}

func (s Self) String() string {
	if s.Username != "" {
		return fmt.Sprintf("%s (@%s), id=%d", s.DisplayName(), s.Username, s.ID)
	}
	return fmt.Sprintf("%s, id=%d", s.DisplayName(), s.ID)
}

// Client — внешний клиент протокола. Реализация живёт в адаптере (gotd);
// ядро только реагирует на типизированные исходы (см. Error).
type Client interface {
	Connect(ctx context.Context) error
	// Disconnect идемпотентен: повторный вызов ничего не делает.
	Disconnect() error

	IsAuthorized(ctx context.Context) (bool, error)
	RequestCode(ctx context.Context, phone string) error
	SignIn(ctx context.Context, phone, code string) error
	SignInPassword(ctx context.Context, password string) error

	Send(ctx context.Context, to Recipient, text string) error
	ListRecentChats(ctx context.Context, limit int) ([]ChatSummary, error)
	// GetMessage возвращает (nil, nil), если сообщения нет.
	GetMessage(ctx context.Context, chat string, id int) (*Message, error)
	GetEntity(ctx context.Context, identifier string) (EntityInfo, error)
	Self(ctx context.Context) (Self, error)
	Monitor(ctx context.Context, onMessage func(IncomingMessage)) error
}
