package conversation

import (
	"fmt"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/virtual-assistant/vassist/media"

	"github.com/sourcegraph/conc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendFillsIdentityAndTimestamp(t *testing.T) {
	tr := NewTranscript()

	stored, err := tr.Append(Turn{Role: RoleUser, Text: "merhaba"})
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.WithinDuration(t, time.Now(), stored.CreatedAt, time.Second)
	assert.Equal(t, 1, tr.Len())
}

func TestAppendRejectsEmptyTurn(t *testing.T) {
	tr := NewTranscript()

	_, err := tr.Append(Turn{Role: RoleModel})
	assert.ErrorIs(t, err, ErrEmptyTurn)

	// Attachments alone are not enough either.
	_, err = tr.Append(Turn{
		Role:  RoleModel,
		Parts: []media.FilePart{{MIMEType: "image/png", Data: "aGk="}},
	})
	assert.ErrorIs(t, err, ErrEmptyTurn)
	assert.Equal(t, 0, tr.Len())
}

func TestAppendAcceptsToolOnlyTurn(t *testing.T) {
	tr := NewTranscript()

	stored, err := tr.Append(Turn{
		Role: RoleModel,
		Tool: &ToolUse{Name: "web_search"},
	})
	require.NoError(t, err)
	require.NotNil(t, stored.Tool)
	assert.Equal(t, "web_search", stored.Tool.Name)
}

func TestSnapshotIsIsolated(t *testing.T) {
	tr := NewTranscript()
	_, err := tr.Append(Turn{
		Role:  RoleUser,
		Text:  "resme bak",
		Parts: []media.FilePart{{MIMEType: "image/png", Data: "aGk="}},
	})
	require.NoError(t, err)

	snap := tr.Snapshot()
	snap[0].Text = "mutated"
	snap[0].Parts[0].MIMEType = "image/jpeg"

	fresh := tr.Snapshot()
	assert.Equal(t, "resme bak", fresh[0].Text)
	assert.Equal(t, "image/png", fresh[0].Parts[0].MIMEType)
}

func TestLastReturnsMostRecentTurn(t *testing.T) {
	tr := NewTranscript()

	_, ok := tr.Last()
	assert.False(t, ok)

	_, err := tr.Append(Turn{Role: RoleUser, Text: "first"})
	require.NoError(t, err)
	_, err = tr.Append(Turn{Role: RoleModel, Text: "second"})
	require.NoError(t, err)

	last, ok := tr.Last()
	require.True(t, ok)
	assert.Equal(t, "second", last.Text)
	assert.Equal(t, RoleModel, last.Role)
}

func TestConcurrentAppends(t *testing.T) {
	tr := NewTranscript()

	var wg conc.WaitGroup
	for i := 0; i < 50; i++ {
		i := i
		wg.Go(func() {
			_, err := tr.Append(Turn{Role: RoleUser, Text: fmt.Sprintf("turn %d", i)})
			assert.NoError(t, err)
		})
	}
	wg.Wait()

	assert.Equal(t, 50, tr.Len())
}

func TestNewActionResultFillsIdentity(t *testing.T) {
	result := NewActionResult("growth_plan", "bana bir plan yap", "Büyüme planı oluşturuldu.")

	assert.NotEmpty(t, result.ID)
	assert.Equal(t, "growth_plan", result.Tool)
	assert.Equal(t, "bana bir plan yap", result.Prompt)
	assert.Equal(t, ActionSuccess, result.Status)
	assert.WithinDuration(t, time.Now(), result.CreatedAt, time.Second)
}

func TestActionLogKeepsOrderedEntries(t *testing.T) {
	log := NewActionLog()

	first := NewActionResult("growth_plan", "plan istiyorum", "Büyüme planı oluşturuldu.")
	second := NewActionResult("web_search", "finali kim kazandı", "Web araması yapıldı.")
	log.Add(first)
	log.Add(second)

	assert.NotEqual(t, first.ID, second.ID)

	snap := log.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "growth_plan", snap[0].Tool)
	assert.Equal(t, "web_search", snap[1].Tool)
	assert.Equal(t, "finali kim kazandı", snap[1].Prompt)

	// Snapshot is a copy.
	snap[0].Summary = "mutated"
	assert.Equal(t, "Büyüme planı oluşturuldu.", log.Snapshot()[0].Summary)
}
