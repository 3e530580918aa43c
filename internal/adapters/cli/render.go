package cli

import (
	"fmt"
	"time"

	"telegram-messenger/internal/domain/chat"

	"github.com/go-faster/jx"
)

const (
	nameWidth   = 24
	noUsername  = "—"
	dumpDateFmt = "2006-01-02 15:04:05-07:00"
	jsonIndent  = 2
)

// renderChatTable — таблица «# / Name / Username / Type» в рамке.
func renderChatTable(chats []chat.ChatSummary) []string {
	lines := make([]string, 0, len(chats)+4)
	lines = append(lines, rule)
	lines = append(lines, fmt.Sprintf("%-4s %-25s %-20s %-10s", "#", "Name", "Username", "Type"))
	lines = append(lines, rule)
	for i, c := range chats {
		username := noUsername
		if c.Username != "" {
			username = "@" + c.Username
		}
		lines = append(lines, fmt.Sprintf("%-4d %-25s %-20s %-10s", i+1, truncate(c.Name, nameWidth), username, c.Type))
	}
	lines = append(lines, rule)
	return lines
}

// truncate обрезает строку до n рун.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// messageJSON — упрощённый дамп сообщения. Отсутствующие поля выводятся как null.
func messageJSON(m *chat.Message) string {
	var e jx.Encoder
	e.SetIdent(jsonIndent)
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int(m.ID) })
		e.Field("date", func(e *jx.Encoder) { e.Str(m.Date.Format(dumpDateFmt)) })
		e.Field("message", func(e *jx.Encoder) { e.Str(m.Text) })
		e.Field("from_id", strOrNull(m.FromID))
		e.Field("peer_id", strOrNull(m.PeerID))
		e.Field("fwd_from", strOrNull(m.FwdFrom))
		e.Field("via_bot_id", func(e *jx.Encoder) {
			if m.ViaBotID == 0 {
				e.Null()
				return
			}
			e.Int64(m.ViaBotID)
		})
		e.Field("reply_to", strOrNull(m.ReplyTo))
		e.Field("media", strOrNull(m.Media))
		e.Field("entities", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, ent := range m.Entities {
					e.Str(ent)
				}
			})
		})
		e.Field("views", func(e *jx.Encoder) {
			if m.Views == 0 {
				e.Null()
				return
			}
			e.Int(m.Views)
		})
		e.Field("edit_date", timeOrNull(m.EditDate))
	})
	return e.String()
}

// entityJSON — сведения о сущности; пустые поля не выводятся.
func entityJSON(info chat.EntityInfo) string {
	var e jx.Encoder
	e.SetIdent(jsonIndent)
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Int64(info.ID) })
		optStr(e, "type", info.Type)
		optStr(e, "username", info.Username)
		optStr(e, "first_name", info.FirstName)
		optStr(e, "last_name", info.LastName)
		optStr(e, "phone", info.Phone)
		optBool(e, "bot", info.Bot)
		optBool(e, "verified", info.Verified)
		optBool(e, "restricted", info.Restricted)
		optBool(e, "scam", info.Scam)
		optBool(e, "fake", info.Fake)
	})
	return e.String()
}

func strOrNull(s string) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		if s == "" {
			e.Null()
			return
		}
		e.Str(s)
	}
}

func timeOrNull(t time.Time) func(e *jx.Encoder) {
	return func(e *jx.Encoder) {
		if t.IsZero() {
			e.Null()
			return
		}
		e.Str(t.Format(dumpDateFmt))
	}
}

func optStr(e *jx.Encoder, name, v string) {
	if v == "" {
		return
	}
	e.Field(name, func(e *jx.Encoder) { e.Str(v) })
}

func optBool(e *jx.Encoder, name string, v *bool) {
	if v == nil {
		return
	}
	e.Field(name, func(e *jx.Encoder) { e.Bool(*v) })
}
