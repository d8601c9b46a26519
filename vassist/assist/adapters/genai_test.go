package adapters

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	ports "github.com/ZanzyTHEbar/virtual-assistant/vassist/assist/ports"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"google.golang.org/genai"
)

func TestRemapErrCredentialRejection(t *testing.T) {
	err := remapErr(errors.New("Error 403: Requested entity was not found."))
	assert.ErrorIs(t, err, ports.ErrCredentialInvalid)

	plain := errors.New("deadline exceeded")
	assert.Equal(t, plain, remapErr(plain))
	assert.NoError(t, remapErr(nil))
}

func TestToVideoOperation(t *testing.T) {
	op := toVideoOperation(&genai.GenerateVideosOperation{
		Name: "operations/abc",
		Done: true,
		Response: &genai.GenerateVideosResponse{
			GeneratedVideos: []*genai.GeneratedVideo{
				{Video: &genai.Video{URI: "https://example.com/v.mp4"}},
			},
		},
	})

	assert.Equal(t, "operations/abc", op.Name)
	assert.True(t, op.Done)
	assert.Equal(t, "https://example.com/v.mp4", op.URI)
	assert.Empty(t, op.Err)
	assert.NotNil(t, op.Raw)
}

func TestToVideoOperationError(t *testing.T) {
	op := toVideoOperation(&genai.GenerateVideosOperation{
		Name:  "operations/abc",
		Done:  true,
		Error: map[string]any{"code": float64(8), "message": "quota exhausted"},
	})

	assert.Equal(t, "quota exhausted", op.Err)
	assert.Empty(t, op.URI)
}

func TestToVideoOperationErrorWithoutMessage(t *testing.T) {
	op := toVideoOperation(&genai.GenerateVideosOperation{
		Name:  "operations/abc",
		Done:  true,
		Error: map[string]any{"code": float64(13)},
	})

	assert.NotEmpty(t, op.Err)
}

func TestCheckVideoOpCredentialRejection(t *testing.T) {
	_, err := checkVideoOp(&ports.VideoOperation{
		Name: "operations/abc",
		Done: true,
		Err:  "Requested entity was not found.",
	})
	assert.ErrorIs(t, err, ports.ErrCredentialInvalid)
}

func TestCheckVideoOpPassesThrough(t *testing.T) {
	pending := &ports.VideoOperation{Name: "operations/abc"}
	op, err := checkVideoOp(pending)
	require.NoError(t, err)
	assert.Same(t, pending, op)

	// Other terminal failures stay on the operation for the caller to
	// report.
	failed := &ports.VideoOperation{Name: "operations/abc", Done: true, Err: "quota exhausted"}
	op, err = checkVideoOp(failed)
	require.NoError(t, err)
	assert.Equal(t, "quota exhausted", op.Err)
}

func TestToContents(t *testing.T) {
	history := []ports.Message{
		{Role: "user", Parts: []ports.Part{{Text: "merhaba"}}},
		{Role: "model", Parts: []ports.Part{{Text: "buyrun"}}},
		{Role: "user", Parts: nil}, // empty turns are dropped
	}
	parts := []ports.Part{
		{Text: "şuna bak"},
		{Blob: &ports.Blob{MIMEType: "image/png", Data: []byte{1, 2}}},
	}

	contents := toContents(history, parts)
	require.Len(t, contents, 3)

	assert.Equal(t, genai.Role(genai.RoleUser), genai.Role(contents[0].Role))
	assert.Equal(t, genai.Role(genai.RoleModel), genai.Role(contents[1].Role))

	last := contents[2]
	assert.Equal(t, genai.Role(genai.RoleUser), genai.Role(last.Role))
	require.Len(t, last.Parts, 2)
	assert.Equal(t, "şuna bak", last.Parts[0].Text)
	require.NotNil(t, last.Parts[1].InlineData)
	assert.Equal(t, "image/png", last.Parts[1].InlineData.MIMEType)
}

func TestFetchVideoAppendsCredential(t *testing.T) {
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("key")
		fmt.Fprint(w, "mp4-bytes")
	}))
	defer server.Close()

	p := &GenAIProvider{apiKey: "sk-123", http: server.Client(), logger: zerolog.Nop()}

	data, err := p.FetchVideo(context.Background(), &ports.VideoOperation{URI: server.URL + "/files/v1?alt=media"})
	require.NoError(t, err)
	assert.Equal(t, []byte("mp4-bytes"), data)
	assert.Equal(t, "sk-123", gotKey)
}

func TestFetchVideoWithoutQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sk-123", r.URL.Query().Get("key"))
		fmt.Fprint(w, "ok")
	}))
	defer server.Close()

	p := &GenAIProvider{apiKey: "sk-123", http: server.Client(), logger: zerolog.Nop()}

	_, err := p.FetchVideo(context.Background(), &ports.VideoOperation{URI: server.URL + "/files/v1"})
	assert.NoError(t, err)
}

func TestFetchVideoRejectsErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	p := &GenAIProvider{apiKey: "sk-123", http: server.Client(), logger: zerolog.Nop()}

	_, err := p.FetchVideo(context.Background(), &ports.VideoOperation{URI: server.URL + "/files/v1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchVideoRequiresURI(t *testing.T) {
	p := &GenAIProvider{apiKey: "sk-123", http: http.DefaultClient, logger: zerolog.Nop()}

	_, err := p.FetchVideo(context.Background(), &ports.VideoOperation{})
	assert.Error(t, err)
	_, err = p.FetchVideo(context.Background(), nil)
	assert.Error(t, err)
}

func TestNewGenAIProviderRequiresKey(t *testing.T) {
	_, err := NewGenAIProvider(context.Background(), "", zerolog.Nop())
	assert.ErrorIs(t, err, ports.ErrCredentialMissing)
}
