package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

// QuestionContext carries the accumulated session state the generator needs
// to produce the next question. Company name and focus areas are optional.
type QuestionContext struct {
	JobPosition     string
	CompanyName     string
	InterviewStage  string
	ExperienceLevel string
	Language        string
	Difficulty      string
	FocusAreas      []string
	QuestionNumber  int
}

// GeneratedQuestion is the generator's output. The shape is identical for AI
// and fallback paths; callers may log the source but must not branch on it.
type GeneratedQuestion struct {
	QuestionText       string
	TranslatedText     *string
	Category           string
	Difficulty         string
	StarMethodRelevant bool
	GeneratedBy        string
}

// QuestionSource produces interview questions from session context
type QuestionSource interface {
	GenerateQuestion(ctx context.Context, qc QuestionContext) *GeneratedQuestion
}

// QuestionGenerator builds prompts from session context, calls the AI
// provider, and validates the returned JSON payload. Every failure path
// degrades to a deterministic template question; this component never errors
// and never persists.
type QuestionGenerator struct {
	provider  Provider
	maxTokens int
}

func NewQuestionGenerator(provider Provider, maxTokens int) *QuestionGenerator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &QuestionGenerator{
		provider:  provider,
		maxTokens: maxTokens,
	}
}

func (g *QuestionGenerator) GenerateQuestion(ctx context.Context, qc QuestionContext) *GeneratedQuestion {
	if g.provider == nil {
		return fallbackQuestion(qc)
	}

	prompt := g.buildPrompt(qc)
	system := "You are an expert interview coach generating realistic interview questions. Respond only with the requested JSON object."

	raw, err := g.provider.Send(ctx, prompt, system, g.maxTokens)
	if err != nil {
		slog.Warn("Question generation falling back to template", "error", err, "stage", qc.InterviewStage, "question_number", qc.QuestionNumber)
		return fallbackQuestion(qc)
	}

	question, err := g.parseQuestion(raw, qc)
	if err != nil {
		slog.Warn("Failed to parse generated question, falling back to template", "error", err, "stage", qc.InterviewStage, "question_number", qc.QuestionNumber)
		return fallbackQuestion(qc)
	}

	slog.Info("Question generated", "stage", qc.InterviewStage, "category", question.Category, "question_number", qc.QuestionNumber)
	return question
}

func (g *QuestionGenerator) buildPrompt(qc QuestionContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Generate interview question %d for a candidate preparing for a %s stage interview.

Role: %s
`, qc.QuestionNumber, qc.InterviewStage, qc.JobPosition)

	if qc.CompanyName != "" {
		fmt.Fprintf(&sb, "Company: %s\n", qc.CompanyName)
	}
	if qc.ExperienceLevel != "" {
		fmt.Fprintf(&sb, "Experience level: %s\n", qc.ExperienceLevel)
	}
	if qc.Difficulty != "" {
		fmt.Fprintf(&sb, "Difficulty: %s\n", qc.Difficulty)
	}
	if len(qc.FocusAreas) > 0 {
		fmt.Fprintf(&sb, "Focus areas: %s\n", strings.Join(qc.FocusAreas, ", "))
	}

	fmt.Fprintf(&sb, `
The question category must be one of: %s.

Respond with a single JSON object:
{
  "questionText": "the interview question",
  "questionCategory": "one of the allowed categories",
  "starMethodRelevant": true
}`, strings.Join(allowedCategories(qc.InterviewStage), ", "))

	if qc.Language != "" && qc.Language != "en" {
		fmt.Fprintf(&sb, `

Also include a "translatedText" field with the question translated to language code %q.`, qc.Language)
	}

	return sb.String()
}

type questionPayload struct {
	QuestionText       string `json:"questionText"`
	QuestionCategory   string `json:"questionCategory"`
	StarMethodRelevant *bool  `json:"starMethodRelevant"`
	TranslatedText     string `json:"translatedText"`
}

func (g *QuestionGenerator) parseQuestion(raw string, qc QuestionContext) (*GeneratedQuestion, error) {
	block, ok := extractJSONObject(raw)
	if !ok {
		return nil, &GenerationParseError{Reason: "no JSON object in provider output"}
	}

	var payload questionPayload
	if err := json.Unmarshal([]byte(block), &payload); err != nil {
		return nil, &GenerationParseError{Reason: fmt.Sprintf("invalid JSON: %v", err)}
	}
	if strings.TrimSpace(payload.QuestionText) == "" {
		return nil, &GenerationParseError{Reason: "missing questionText"}
	}
	if strings.TrimSpace(payload.QuestionCategory) == "" {
		return nil, &GenerationParseError{Reason: "missing questionCategory"}
	}

	starRelevant := true
	if payload.StarMethodRelevant != nil {
		starRelevant = *payload.StarMethodRelevant
	}

	question := &GeneratedQuestion{
		QuestionText:       strings.TrimSpace(payload.QuestionText),
		Category:           normalizeCategory(qc.InterviewStage, payload.QuestionCategory),
		Difficulty:         qc.Difficulty,
		StarMethodRelevant: starRelevant,
		GeneratedBy:        "ai",
	}
	if translated := strings.TrimSpace(payload.TranslatedText); translated != "" {
		question.TranslatedText = &translated
	}
	return question, nil
}
