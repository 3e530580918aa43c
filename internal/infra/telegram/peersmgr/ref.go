package peersmgr

import (
	"strconv"
	"strings"

	"github.com/go-faster/errors"
)

// RefKind — как пользователь указал собеседника.
type RefKind uint8

const (
	RefSelf RefKind = iota + 1
	RefDomain
	RefLink
	RefPhone
	RefUserID
	RefChatID
	RefChannelID
)

// Ref — разобранный идентификатор собеседника из строки ввода.
type Ref struct {
	Kind   RefKind
	Domain string // без '@'
	Link   string
	Phone  string
	ID     int64
}

// channelIDPrefix — префикс Bot API для каналов и супергрупп: -100<id>.
const channelIDPrefix = "-100"

var errEmptyRef = errors.New("empty peer identifier")

// ParseRef разбирает строку вида "me", "@name", "name", "t.me/name", "+79990000000",
// "12345" (пользователь), "-12345" (группа) или "-10012345" (канал).
func ParseRef(input string) (Ref, error) {
	s := strings.TrimSpace(input)
	switch {
	case s == "":
		return Ref{}, errEmptyRef
	case strings.EqualFold(s, "me") || strings.EqualFold(s, "self"):
		return Ref{Kind: RefSelf}, nil
	case strings.Contains(s, "/"):
		return Ref{Kind: RefLink, Link: s}, nil
	case strings.HasPrefix(s, "+"):
		digits := s[1:]
		if !isDigits(digits) {
			return Ref{}, errors.Errorf("invalid phone number %q", s)
		}
		return Ref{Kind: RefPhone, Phone: s}, nil
	case strings.HasPrefix(s, channelIDPrefix) && isDigits(s[len(channelIDPrefix):]):
		id, err := strconv.ParseInt(s[len(channelIDPrefix):], 10, 64)
		if err != nil {
			return Ref{}, errors.Wrapf(err, "parse channel id %q", s)
		}
		return Ref{Kind: RefChannelID, ID: id}, nil
	case strings.HasPrefix(s, "-") && isDigits(s[1:]):
		id, err := strconv.ParseInt(s[1:], 10, 64)
		if err != nil {
			return Ref{}, errors.Wrapf(err, "parse chat id %q", s)
		}
		return Ref{Kind: RefChatID, ID: id}, nil
	case isDigits(s):
		id, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return Ref{}, errors.Wrapf(err, "parse user id %q", s)
		}
		return Ref{Kind: RefUserID, ID: id}, nil
	default:
		domain := strings.TrimPrefix(s, "@")
		if domain == "" {
			return Ref{}, errEmptyRef
		}
		return Ref{Kind: RefDomain, Domain: domain}, nil
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
