package naming

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocal_Normalize(t *testing.T) {
	tests := []struct {
		label  string
		want   string
		source string
	}{
		{label: "Full Name", want: "users1_name", source: "rules"},
		{label: "FullName", want: "users1_name", source: "rules"},
		{label: "zip_code", want: "users1_address_zip", source: "rules"},
		{label: "Date 2", want: "signature_date", source: "rules"},
		{label: "Case Number", want: "docket_number", source: "rules"},
		{label: "Name of the Employer", want: "name_employer", source: "local"},
		{label: "  ", want: "field", source: "local"},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			got, err := Local{}.Normalize(context.Background(), tt.label)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
			assert.Equal(t, tt.source, got.Source)
		})
	}
}

func TestSnakeCase(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "Employer Address", want: "employer_address"},
		{in: "employerAddress", want: "employer_address"},
		{in: "Total, total amount ($)", want: "total_amount"},
		{in: "12345", want: "unknown"},
		{in: "Please describe the reasons for your request in detail", want: "describe_reasons_request"},
		{in: "", want: "field"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := SnakeCase(tt.in)
			assert.Equal(t, tt.want, got)
			assert.LessOrEqual(t, len(got), MaxNameLength)
		})
	}
}

func TestRegistry_Claim(t *testing.T) {
	r := NewRegistry("taken", "a_2")
	assert.Equal(t, "a", r.Claim("a"))
	assert.Equal(t, "a_3", r.Claim("a"))
	assert.Equal(t, "a_4", r.Claim("a"))
	assert.Equal(t, "taken_2", r.Claim("taken"))
	assert.Equal(t, "b", r.Claim("b"))
}

func TestParseSuggestion(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Suggestion
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"name": "employer_name", "confidence": 0.8}`,
			want:  Suggestion{Name: "employer_name", Confidence: 0.8, Source: "gemini"},
		},
		{
			name:  "code fence",
			reply: "```json\n{\"name\": \"employer_name\", \"confidence\": 0.5}\n```",
			want:  Suggestion{Name: "employer_name", Confidence: 0.5, Source: "gemini"},
		},
		{
			name:  "surrounding prose",
			reply: `Here you go: {"name": "Employer Name", "confidence": 2} hope it helps`,
			want:  Suggestion{Name: "employer_name", Confidence: 1, Source: "gemini"},
		},
		{name: "no json", reply: "employer_name", wantErr: true},
		{name: "empty name", reply: `{"name": "", "confidence": 1}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseSuggestion(tt.reply)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewGemini_RequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), "", "")
	assert.Error(t, err)
}

func TestGemini_RulesSkipModel(t *testing.T) {
	// a zero client is never touched when a rule matches
	g := &Gemini{model: DefaultGeminiModel}
	got, err := g.Normalize(context.Background(), "Telephone")
	require.NoError(t, err)
	assert.Equal(t, "users1_phone_number", got.Name)
}
