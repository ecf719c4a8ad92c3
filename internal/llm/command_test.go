package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		tool    Tool
		thought string
		params  Params
	}{
		{
			name:    "plain",
			raw:     `{"thought":"open site","tool":"navigate","params":{"url":"https://example.com"}}`,
			tool:    ToolNavigate,
			thought: "open site",
			params:  Params{"url": "https://example.com"},
		},
		{
			name:   "full fence",
			raw:    "```json\n{\"tool\":\"scroll\",\"params\":{\"direction\":\"down\"}}\n```",
			tool:   ToolScroll,
			params: Params{"direction": "down"},
		},
		{
			name:   "embedded fence",
			raw:    "Sure! Here you go:\n```\n{\"tool\":\"answer\",\"params\":{\"text\":\"42\"}}\n```\nHope it helps.",
			tool:   ToolAnswer,
			params: Params{"text": "42"},
		},
		{
			name:   "missing params",
			raw:    `  {"tool":"read-summary"}  `,
			tool:   ToolReadSummary,
			params: Params{},
		},
		{
			name:   "null params",
			raw:    `{"tool":"chat","params":null,"thought":null}`,
			tool:   ToolChat,
			params: Params{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := ParseCommand(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.tool, cmd.Tool)
			assert.Equal(t, tt.thought, cmd.Thought)
			assert.Equal(t, tt.params, cmd.Params)
		})
	}
}

func TestParseCommand_Invalid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", "   "},
		{"prose", "I will click the search button now."},
		{"truncated", `{"tool":"click","params":{"selector":"go"}`},
		{"no tool", `{"params":{"selector":"go"}}`},
		{"empty tool", `{"tool":"","params":{}}`},
		{"unknown tool", `{"tool":"hover","params":{}}`},
		{"params array", `{"tool":"click","params":["go"]}`},
		{"thought object", `{"thought":{"a":1},"tool":"click","params":{}}`},
		{"two objects", `{"tool":"click","params":{}} {"tool":"type","params":{}}`},
		{"array", `[{"tool":"click"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCommand(tt.raw)
			assert.ErrorIs(t, err, ErrInvalidModelOutput)
		})
	}
}

func TestCommand_Accessors(t *testing.T) {
	cmd := Command{Tool: ToolClick, Params: Params{"target": "Sign in", "n": 3.0, "ok": true}}
	assert.Equal(t, "Sign in", cmd.Target())
	assert.Equal(t, "3", cmd.Params.String("n"))
	assert.Equal(t, "true", cmd.Params.String("ok"))
	assert.Equal(t, "", cmd.Params.String("missing"))

	cmd.Params["selector"] = "#login"
	assert.Equal(t, "#login", cmd.Target())

	assert.Equal(t, "X", Command{Tool: ToolAnswer, Params: Params{"text": "X"}}.Text())
	assert.Equal(t, "hi", Command{Tool: ToolChat, Params: Params{"message": "hi"}}.Text())
	assert.Equal(t, "Done.", Command{Tool: ToolAnswer}.Text())

	assert.True(t, ToolAnswer.Terminal())
	assert.True(t, ToolChat.Terminal())
	assert.False(t, ToolClick.Terminal())
}

func TestCommand_EncodeRoundTrip(t *testing.T) {
	cmd := Command{Thought: "type query", Tool: ToolType, Params: Params{"selector": "search", "text": "golang"}}

	encoded := cmd.Encode()
	assert.JSONEq(t, `{"thought":"type query","tool":"type","params":{"selector":"search","text":"golang"}}`, encoded)

	back, err := ParseCommand(encoded)
	require.NoError(t, err)
	assert.Equal(t, cmd, back)

	assert.JSONEq(t, `{"tool":"read-summary","params":{}}`, Command{Tool: ToolReadSummary}.Encode())
}
