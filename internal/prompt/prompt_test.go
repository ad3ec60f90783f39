package prompt

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDocumentPrompt(t *testing.T) {
	msgs := BuildDocumentPrompt("chunk one\n\n---\n\nchunk two", "What is a goroutine?", "", nil)

	require.Len(t, msgs, 2)
	assert.Equal(t, RoleSystem, msgs[0].Role)
	assert.Contains(t, msgs[0].Content, "loaded documents")

	assert.Equal(t, RoleUser, msgs[1].Role)
	assert.Contains(t, msgs[1].Content, "Context from documents:\nchunk one")
	assert.Contains(t, msgs[1].Content, "Question: What is a goroutine?")
}

func TestBuildSearchPrompt(t *testing.T) {
	msgs := BuildSearchPrompt("--- Source 1: Go Blog ---", "release date?", "", nil)

	require.Len(t, msgs, 2)
	assert.Contains(t, msgs[0].Content, "web search results")
	assert.NotContains(t, msgs[0].Content, "loaded documents")
	assert.Contains(t, msgs[1].Content, "--- Source 1: Go Blog ---")
	assert.Contains(t, msgs[1].Content, "Question: release date?")
}

func TestBuildPlainPrompt(t *testing.T) {
	msgs := BuildPlainPrompt("hello", "", nil)

	require.Len(t, msgs, 2)
	assert.Equal(t, "hello", msgs[1].Content)
	assert.NotContains(t, msgs[0].Content, "search results")
}

func TestFactContextAppendedToSystem(t *testing.T) {
	facts := "Known facts about the user:\n\n[Work]\n- Writes Go for a living"

	for name, msgs := range map[string][]Message{
		"document": BuildDocumentPrompt("ctx", "q", facts, nil),
		"search":   BuildSearchPrompt("ctx", "q", facts, nil),
		"plain":    BuildPlainPrompt("q", facts, nil),
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, msgs[0].Content, "Writes Go for a living")
			// Facts belong to the system message, never the user turn.
			assert.NotContains(t, msgs[1].Content, "Writes Go for a living")
		})
	}
}

func TestHistoryWindow(t *testing.T) {
	var history []Message
	for i := 0; i < 10; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		history = append(history, Message{Role: role, Content: fmt.Sprintf("turn %d", i)})
	}

	msgs := BuildPlainPrompt("latest", "", history)

	// system + 6 most recent history turns + user
	require.Len(t, msgs, 8)
	assert.Equal(t, "turn 4", msgs[1].Content)
	assert.Equal(t, "turn 9", msgs[6].Content)
	assert.Equal(t, "latest", msgs[7].Content)
}

func TestShortHistoryKeptIntact(t *testing.T) {
	history := []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
	}
	msgs := BuildDocumentPrompt("ctx", "q", "", history)
	require.Len(t, msgs, 4)
	assert.Equal(t, "hi", msgs[1].Content)
	assert.Equal(t, "hello", msgs[2].Content)
}
