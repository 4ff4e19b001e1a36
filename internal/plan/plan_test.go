package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	raw := `{"plan": [{"tool": "get_flight_basic_info", "arguments": {"carrier": "6E", "flight_number": "215"}}]}`

	p := Parse(raw)
	require.Len(t, p.Steps, 1)
	assert.Equal(t, "get_flight_basic_info", p.Steps[0].Tool)
	assert.Equal(t, "6E", p.Steps[0].Arguments["carrier"])
	assert.False(t, p.Empty())
}

func TestParseStripsFences(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"json fence", "```json\n{\"plan\": [{\"tool\": \"health_check\", \"arguments\": {}}]}\n```"},
		{"bare fence", "```\n{\"plan\": [{\"tool\": \"health_check\", \"arguments\": {}}]}\n```"},
		{"leading whitespace", "  \n```json\n{\"plan\": [{\"tool\": \"health_check\", \"arguments\": {}}]}\n```\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(tt.raw)
			require.Len(t, p.Steps, 1)
			assert.Equal(t, "health_check", p.Steps[0].Tool)
		})
	}
}

func TestParseDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n  "},
		{"not json", "I cannot answer that."},
		{"json array", `[{"tool": "health_check"}]`},
		{"missing plan key", `{"steps": []}`},
		{"truncated", `{"plan": [{"tool": "health_`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, Parse(tt.raw).Empty())
		})
	}
}

func TestParseMultiStep(t *testing.T) {
	raw := `{"plan": [
		{"tool": "get_flight_basic_info", "arguments": {"carrier": "6E", "flight_number": "215", "date_of_origin": "2024-06-23"}},
		{"tool": "get_delay_summary", "arguments": {"carrier": "6E", "flight_number": "215", "date_of_origin": "2024-06-23"}}
	]}`

	p := Parse(raw)
	require.Len(t, p.Steps, 2)
	assert.Equal(t, "get_delay_summary", p.Steps[1].Tool)
}
