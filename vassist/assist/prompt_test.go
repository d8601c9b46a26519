package assist

import (
	"fmt"
	"testing"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/conversation"
	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemInstruction(t *testing.T) {
	got := systemInstruction("Sen yardımsever bir asistansın.", "tr-TR")
	assert.Contains(t, got, "Sen yardımsever bir asistansın.")
	assert.Contains(t, got, "Always answer in tr-TR.")

	assert.Equal(t, "persona", systemInstruction("persona", ""))
}

func TestHistoryMessagesWindow(t *testing.T) {
	var turns []conversation.Turn
	for i := 0; i < 30; i++ {
		role := conversation.RoleUser
		if i%2 == 1 {
			role = conversation.RoleModel
		}
		turns = append(turns, conversation.Turn{Role: role, Text: fmt.Sprintf("mesaj %d", i)})
	}

	msgs := historyMessages(turns, 20)
	require.Len(t, msgs, 20)
	assert.Equal(t, "mesaj 10", msgs[0].Parts[0].Text)
	assert.Equal(t, "mesaj 29", msgs[19].Parts[0].Text)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "model", msgs[1].Role)
}

func TestHistoryMessagesAttachments(t *testing.T) {
	turns := []conversation.Turn{
		{
			Role: conversation.RoleUser,
			Text: "şu resme bak",
			Parts: []media.FilePart{
				{MIMEType: "image/png", Data: "AQID"},
			},
		},
		{
			Role: conversation.RoleUser,
			Text: "bozuk ek",
			Parts: []media.FilePart{
				{MIMEType: "image/png", Data: "%%%"},
			},
		},
	}

	msgs := historyMessages(turns, 0)
	require.Len(t, msgs, 2)

	require.Len(t, msgs[0].Parts, 2)
	require.NotNil(t, msgs[0].Parts[1].Blob)
	assert.Equal(t, []byte{1, 2, 3}, msgs[0].Parts[1].Blob.Data)

	// A history attachment that no longer decodes is replayed text-only.
	require.Len(t, msgs[1].Parts, 1)
	assert.Equal(t, "bozuk ek", msgs[1].Parts[0].Text)
}

func TestHistoryMessagesSkipsEmptyTurns(t *testing.T) {
	turns := []conversation.Turn{
		{Role: conversation.RoleUser, Text: ""},
		{Role: conversation.RoleModel, Text: "dolu"},
	}

	msgs := historyMessages(turns, 0)
	require.Len(t, msgs, 1)
	assert.Equal(t, "dolu", msgs[0].Parts[0].Text)
}

func TestInputParts(t *testing.T) {
	parts, err := inputParts("bak", []media.FilePart{{MIMEType: "image/png", Data: "AQID"}})
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "bak", parts[0].Text)
	assert.Equal(t, "image/png", parts[1].Blob.MIMEType)
}

func TestInputPartsCorruptAttachment(t *testing.T) {
	_, err := inputParts("bak", []media.FilePart{{MIMEType: "image/png", Data: "%%%"}})
	assert.Error(t, err)
}
