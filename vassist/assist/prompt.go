package assist

import (
	"fmt"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/conversation"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"
)

// maxHistoryTurns bounds how much transcript is replayed upstream per call.
const maxHistoryTurns = 20

// systemInstruction combines the persona with a hard output-language
// directive, so replies stay in the configured language regardless of what
// language the user writes in.
func systemInstruction(persona, language string) string {
	if language == "" {
		return persona
	}
	return fmt.Sprintf("%s\nAlways answer in %s.", persona, language)
}

// historyMessages converts the most recent transcript turns into provider
// messages. Attachments are re-decoded from their stored base64 form; a
// turn whose attachment fails to decode is sent text-only rather than
// dropped.
func historyMessages(turns []conversation.Turn, limit int) []ports.Message {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]ports.Message, 0, len(turns))
	for _, turn := range turns {
		role := "user"
		if turn.Role == conversation.RoleModel {
			role = "model"
		}

		var parts []ports.Part
		if turn.Text != "" {
			parts = append(parts, ports.Part{Text: turn.Text})
		}
		for _, attachment := range turn.Parts {
			raw, err := attachment.Bytes()
			if err != nil {
				continue
			}
			parts = append(parts, ports.Part{Blob: &ports.Blob{MIMEType: attachment.MIMEType, Data: raw}})
		}
		if len(parts) == 0 {
			continue
		}
		out = append(out, ports.Message{Role: role, Parts: parts})
	}
	return out
}

// inputParts converts the new user turn into provider parts. Unlike history
// replay, a corrupt attachment here is an error: the user explicitly asked
// to send it.
func inputParts(text string, attachments []media.FilePart) ([]ports.Part, error) {
	var parts []ports.Part
	if text != "" {
		parts = append(parts, ports.Part{Text: text})
	}
	for _, attachment := range attachments {
		raw, err := attachment.Bytes()
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment: %w", err)
		}
		parts = append(parts, ports.Part{Blob: &ports.Blob{MIMEType: attachment.MIMEType, Data: raw}})
	}
	return parts, nil
}
