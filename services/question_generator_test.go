package services

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// fakeProvider returns canned responses or errors in order
type fakeProvider struct {
	responses []string
	err       error
	prompts   []string
	systems   []string
}

func (f *fakeProvider) Send(ctx context.Context, prompt, system string, maxTokens int) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.systems = append(f.systems, system)
	if f.err != nil {
		return "", f.err
	}
	if len(f.responses) == 0 {
		return "", errors.New("no canned response")
	}
	response := f.responses[0]
	f.responses = f.responses[1:]
	return response, nil
}

func hiringManagerContext(questionNumber int) QuestionContext {
	return QuestionContext{
		JobPosition:     "Backend Engineer",
		CompanyName:     "Acme",
		InterviewStage:  "hiring-manager",
		ExperienceLevel: "senior",
		Language:        "en",
		Difficulty:      "medium",
		QuestionNumber:  questionNumber,
	}
}

func TestGenerateQuestionFromProvider(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`Here you go: {"questionText":"Tell me about a project you led.","questionCategory":"leadership","starMethodRelevant":true}`,
	}}
	generator := NewQuestionGenerator(provider, 512)

	question := generator.GenerateQuestion(context.Background(), hiringManagerContext(1))

	if question.QuestionText != "Tell me about a project you led." {
		t.Errorf("unexpected question text %q", question.QuestionText)
	}
	if question.Category != "leadership" {
		t.Errorf("category = %q, expected leadership", question.Category)
	}
	if !question.StarMethodRelevant {
		t.Error("expected question to be STAR relevant")
	}
	if question.GeneratedBy != "ai" {
		t.Errorf("generatedBy = %q, expected ai", question.GeneratedBy)
	}
	if question.TranslatedText != nil {
		t.Error("expected no translation for English session")
	}

	if len(provider.prompts) != 1 {
		t.Fatalf("expected 1 provider call, got %d", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0], "Backend Engineer") {
		t.Error("prompt should mention the job position")
	}
	if !strings.Contains(provider.prompts[0], "Acme") {
		t.Error("prompt should mention the company")
	}
}

func TestGenerateQuestionUnknownCategoryNormalized(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`{"questionText":"What is your greatest weakness?","questionCategory":"existential-dread"}`,
	}}
	generator := NewQuestionGenerator(provider, 512)

	question := generator.GenerateQuestion(context.Background(), hiringManagerContext(1))

	// Unknown categories map to the stage default
	if question.Category != "behavioral" {
		t.Errorf("category = %q, expected behavioral", question.Category)
	}
	if question.GeneratedBy != "ai" {
		t.Errorf("generatedBy = %q, expected ai", question.GeneratedBy)
	}
}

func TestGenerateQuestionTranslation(t *testing.T) {
	provider := &fakeProvider{responses: []string{
		`{"questionText":"Describe a conflict you resolved.","questionCategory":"behavioral","translatedText":"Describe un conflicto que resolviste."}`,
	}}
	generator := NewQuestionGenerator(provider, 512)

	qc := hiringManagerContext(1)
	qc.Language = "es"
	question := generator.GenerateQuestion(context.Background(), qc)

	if question.TranslatedText == nil || *question.TranslatedText != "Describe un conflicto que resolviste." {
		t.Errorf("expected translated text, got %v", question.TranslatedText)
	}
	if len(provider.prompts) != 1 || !strings.Contains(provider.prompts[0], `"es"`) {
		t.Error("prompt should request translation to the session language")
	}
}

func TestGenerateQuestionProviderFailureFallsBack(t *testing.T) {
	provider := &fakeProvider{err: ErrProviderUnavailable}
	generator := NewQuestionGenerator(provider, 512)

	question := generator.GenerateQuestion(context.Background(), hiringManagerContext(2))

	if question == nil {
		t.Fatal("fallback must never return nil")
	}
	if question.GeneratedBy != "fallback" {
		t.Errorf("generatedBy = %q, expected fallback", question.GeneratedBy)
	}
	if !strings.Contains(question.QuestionText, "Backend Engineer") {
		t.Errorf("fallback question should interpolate the job position, got %q", question.QuestionText)
	}
	if !contains(allowedCategories("hiring-manager"), question.Category) {
		t.Errorf("fallback category %q not in stage set", question.Category)
	}
}

func TestGenerateQuestionUnparseableOutputFallsBack(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"No JSON", "I'd suggest asking about teamwork."},
		{"Missing questionText", `{"questionCategory":"behavioral"}`},
		{"Missing category", `{"questionText":"Tell me about a failure."}`},
		{"Invalid JSON", `{"questionText": "unterminated`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := &fakeProvider{responses: []string{tt.raw}}
			generator := NewQuestionGenerator(provider, 512)

			question := generator.GenerateQuestion(context.Background(), hiringManagerContext(1))
			if question.GeneratedBy != "fallback" {
				t.Errorf("generatedBy = %q, expected fallback", question.GeneratedBy)
			}
		})
	}
}

func TestGenerateQuestionNilProviderFallsBack(t *testing.T) {
	generator := NewQuestionGenerator(nil, 512)

	question := generator.GenerateQuestion(context.Background(), hiringManagerContext(1))
	if question.GeneratedBy != "fallback" {
		t.Errorf("generatedBy = %q, expected fallback", question.GeneratedBy)
	}
}

func TestFallbackQuestionDeterministic(t *testing.T) {
	qc := hiringManagerContext(3)

	first := fallbackQuestion(qc)
	second := fallbackQuestion(qc)
	if first.QuestionText != second.QuestionText {
		t.Errorf("fallback must be deterministic for a fixed step: %q vs %q", first.QuestionText, second.QuestionText)
	}
}

func TestFallbackQuestionCyclesPool(t *testing.T) {
	poolSize := len(fallbackTemplates["hiring-manager"])

	seen := make(map[string]bool)
	for n := 1; n <= poolSize; n++ {
		qc := hiringManagerContext(n)
		seen[fallbackQuestion(qc).QuestionText] = true
	}
	if len(seen) != poolSize {
		t.Errorf("expected %d distinct questions across one cycle, got %d", poolSize, len(seen))
	}

	// Question poolSize+1 wraps back to the first template
	wrapped := fallbackQuestion(hiringManagerContext(poolSize + 1))
	first := fallbackQuestion(hiringManagerContext(1))
	if wrapped.QuestionText != first.QuestionText {
		t.Errorf("expected pool to wrap, got %q vs %q", wrapped.QuestionText, first.QuestionText)
	}
}

func TestFallbackQuestionUnknownStage(t *testing.T) {
	qc := hiringManagerContext(1)
	qc.InterviewStage = "board-of-directors"

	question := fallbackQuestion(qc)
	if !contains(stageCategories[defaultStage], question.Category) {
		t.Errorf("unknown stage should use the %s pool, got category %q", defaultStage, question.Category)
	}
}

func TestFallbackQuestionEmptyPosition(t *testing.T) {
	question := fallbackQuestion(QuestionContext{InterviewStage: "phone-screening", QuestionNumber: 1})
	if !strings.Contains(question.QuestionText, "professional") {
		t.Errorf("empty position should use the generic placeholder, got %q", question.QuestionText)
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		stage    string
		category string
		expected string
	}{
		{"hiring-manager", "leadership", "leadership"},
		{"hiring-manager", "  Leadership ", "leadership"},
		{"hiring-manager", "nonsense", "behavioral"},
		{"phone-screening", "motivation", "motivation"},
		{"unknown-stage", "behavioral", "behavioral"},
	}

	for _, tt := range tests {
		if got := normalizeCategory(tt.stage, tt.category); got != tt.expected {
			t.Errorf("normalizeCategory(%q, %q) = %q, expected %q", tt.stage, tt.category, got, tt.expected)
		}
	}
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}
