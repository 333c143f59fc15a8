package naming

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// DefaultGeminiModel is used when no model is configured
const DefaultGeminiModel = "gemini-2.5-flash"

const geminiPrompt = `You name fields of fillable court and government forms.
Given the visible label of one form field, return ONLY a JSON object, no code fences:
{"name": "<snake_case variable name, at most 30 characters>", "confidence": <0..1>}
Prefer these standard names when they fit: users1_name, users1_birthdate,
users1_address_line_one, users1_address_line_two, users1_address_city,
users1_address_state, users1_address_zip, users1_phone_number, users1_email,
users1_signature, signature_date, docket_number, plaintiff1_name, defendant1_name.

Label: `

// Gemini asks a Gemini model for field names. Well-known labels are answered
// from the local rule table without a model call.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini namer
func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing Gemini API key")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: c, model: model}, nil
}

// Normalize implements Namer
func (g *Gemini) Normalize(ctx context.Context, label string) (Suggestion, error) {
	if canonical, ok := matchRule(splitWords(label)); ok {
		return Suggestion{Name: canonical, Confidence: 1, Source: "rules"}, nil
	}
	if strings.TrimSpace(label) == "" {
		return Suggestion{Name: SnakeCase(label), Source: "local"}, nil
	}

	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{
		genai.NewContentFromText(geminiPrompt+label, genai.RoleUser),
	}, nil)
	if err != nil {
		return Suggestion{}, fmt.Errorf("gemini API call failed: %w", err)
	}
	return parseSuggestion(res.Text())
}

// parseSuggestion reads the model reply; the name is forced into snake_case
func parseSuggestion(reply string) (Suggestion, error) {
	var out struct {
		Name       string  `json:"name"`
		Confidence float64 `json:"confidence"`
	}
	js := stripCodeFences(reply)
	if err := json.Unmarshal([]byte(js), &out); err != nil {
		if s := firstObject(js); s != "" {
			if err2 := json.Unmarshal([]byte(s), &out); err2 != nil {
				return Suggestion{}, fmt.Errorf("failed to parse Gemini response as JSON: %w", err2)
			}
		} else {
			return Suggestion{}, fmt.Errorf("failed to parse Gemini response - no JSON found: %w", err)
		}
	}
	if strings.TrimSpace(out.Name) == "" {
		return Suggestion{}, errors.New("gemini response has no name")
	}

	name := out.Name
	if !isSnake(name) {
		name = SnakeCase(name)
	}
	conf := out.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 1 {
		conf = 1
	}
	return Suggestion{Name: name, Confidence: conf, Source: "gemini"}, nil
}

func isSnake(s string) bool {
	if s == "" || len(s) > MaxNameLength || s[0] < 'a' || s[0] > 'z' {
		return false
	}
	for _, r := range s {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '_') {
			return false
		}
	}
	return true
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		}
	}
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// firstObject returns the first balanced {...} span in s
func firstObject(s string) string {
	start, depth := -1, 0
	for i, r := range s {
		switch r {
		case '{':
			if start == -1 {
				start = i
			}
			depth++
		case '}':
			if start != -1 {
				depth--
				if depth == 0 {
					return s[start : i+1]
				}
			}
		}
	}
	return ""
}
