package journal

import (
	"strings"

	"github.com/steel-chat/steel/pkg/chat"
	"github.com/steel-chat/steel/pkg/settings"
)

// FormatMessage renders a journal line from a template. Recognized
// placeholders: {date} (formatted with dateLayout), {date:<layout>},
// {username} and {text}; unknown placeholders render as {unknown}.
func FormatMessage(template, dateLayout string, m chat.Message) string {
	var out strings.Builder
	var placeholder strings.Builder
	inPlaceholder := false

	for _, c := range template {
		switch c {
		case '{':
			inPlaceholder = true
			placeholder.Reset()
		case '}':
			if inPlaceholder {
				out.WriteString(resolvePlaceholder(placeholder.String(), dateLayout, m))
				inPlaceholder = false
			} else {
				out.WriteRune(c)
			}
		default:
			if inPlaceholder {
				placeholder.WriteRune(c)
			} else {
				out.WriteRune(c)
			}
		}
	}

	return out.String()
}

func resolvePlaceholder(placeholder, dateLayout string, m chat.Message) string {
	if layout, ok := strings.CutPrefix(placeholder, "date:"); ok {
		return m.Time.Format(layout)
	}
	switch placeholder {
	case "date":
		return m.Time.Format(dateLayout)
	case "username":
		return m.Username
	case "text":
		return m.Text
	default:
		return "{unknown}"
	}
}

// templateFor picks the line template matching the message type.
func templateFor(formats settings.JournalFormats, typ chat.MessageType) string {
	switch typ {
	case chat.MessageAction:
		return formats.UserAction
	case chat.MessageSystem:
		return formats.SystemMessage
	default:
		return formats.UserMessage
	}
}
