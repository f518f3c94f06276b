package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

var allowedStudyTypes = map[string]bool{
	"General Study":    true,
	"Problem Set":      true,
	"Exam Preparation": true,
	"Project Work":     true,
	"Reading & Notes":  true,
	"Coding Practice":  true,
}

// GeminiClassifier asks a Gemini model to classify descriptions of work.
type GeminiClassifier struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

func NewGeminiClassifier(ctx context.Context, apiKey string) (*GeminiClassifier, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel("gemini-2.0-flash")
	model.SetTemperature(0.1)
	model.ResponseMIMEType = "application/json"

	return &GeminiClassifier{client: client, model: model}, nil
}

func (g *GeminiClassifier) Close() {
	g.client.Close()
}

func (g *GeminiClassifier) Classify(ctx context.Context, description string) (WorkClassification, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(buildClassifyPrompt(description)))
	if err != nil {
		return WorkClassification{}, fmt.Errorf("Gemini API error: %w", err)
	}
	return parseClassification(extractText(resp))
}

func buildClassifyPrompt(description string) string {
	types := make([]string, 0, len(allowedStudyTypes))
	for t := range allowedStudyTypes {
		types = append(types, t)
	}
	sort.Strings(types)
	return fmt.Sprintf(`You plan study sessions for a student.
Classify the work below and estimate the total study time it needs.

Respond with a single JSON object and nothing else:
{"study_type": one of %q, "subject": a short subject name, "duration_minutes": an integer between 30 and 600}

Work: %s`, types, description)
}

// parseClassification accepts the model output with or without a code fence
// and rejects anything outside the allowed shape.
func parseClassification(raw string) (WorkClassification, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	if start, end := strings.Index(raw, "{"), strings.LastIndex(raw, "}"); start >= 0 && end > start {
		raw = raw[start : end+1]
	}

	var c WorkClassification
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return WorkClassification{}, fmt.Errorf("unparseable classification: %w", err)
	}
	if !allowedStudyTypes[c.StudyType] {
		return WorkClassification{}, fmt.Errorf("unknown study type %q", c.StudyType)
	}
	if c.DurationMinutes < 30 || c.DurationMinutes > 600 {
		return WorkClassification{}, fmt.Errorf("duration %d out of range", c.DurationMinutes)
	}
	c.Subject = strings.TrimSpace(c.Subject)
	return c, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
