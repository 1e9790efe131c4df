package llm

import (
	"strings"

	"github.com/Harshitk-cp/outreach/internal/domain"
)

const titlePrompt = `You name sales assistant conversations.

Write a short title (at most 6 words) that captures what the user is trying to do in the conversation below.
Reply with the title only, without quotes or trailing punctuation.

Conversation:
%s`

// maxTitleTurns caps how much of a thread is sent for titling.
const maxTitleTurns = 6

func transcript(conversation []domain.Message) string {
	if len(conversation) > maxTitleTurns {
		conversation = conversation[:maxTitleTurns]
	}
	var sb strings.Builder
	for _, msg := range conversation {
		sb.WriteString(msg.Role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return sb.String()
}

// cleanTitle strips the quoting and punctuation models tend to add anyway.
func cleanTitle(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	s = strings.Trim(s, "\"'` ")
	s = strings.TrimRight(s, ".!")
	return strings.TrimSpace(s)
}
