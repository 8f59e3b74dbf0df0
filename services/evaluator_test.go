package services

import (
	"context"
	"math"
	"strings"
	"testing"
)

func evaluateRaw(t *testing.T, raw string) *STARAssessment {
	t.Helper()
	provider := &fakeProvider{responses: []string{raw}}
	evaluator := NewResponseEvaluator(provider, 512)
	return evaluator.Evaluate(context.Background(), "I led the migration.", "Tell me about a project you led.", hiringManagerContext(1))
}

func TestEvaluateFullAssessment(t *testing.T) {
	assessment := evaluateRaw(t, `{
		"situation": 4.5,
		"task": 4.0,
		"action": 3.5,
		"result": 4.0,
		"flow": 3.0,
		"overall": 4.1,
		"summary": "A well structured answer with concrete outcomes.",
		"strengths": ["Clear context", "Ownership", "Quantified result"],
		"improvements": ["Tighten the opening"],
		"recommendations": ["Practice a shorter situation setup"]
	}`)

	if assessment.Situation != 4.5 || assessment.Task != 4.0 || assessment.Action != 3.5 || assessment.Result != 4.0 {
		t.Errorf("unexpected component scores: %+v", assessment)
	}
	if assessment.Flow != 3.0 {
		t.Errorf("flow = %v, expected 3.0", assessment.Flow)
	}
	if assessment.Overall != 4.1 {
		t.Errorf("overall = %v, expected model value 4.1", assessment.Overall)
	}
	if assessment.EvaluatedBy != "ai" {
		t.Errorf("evaluatedBy = %q, expected ai", assessment.EvaluatedBy)
	}
	if len(assessment.Strengths) != 3 {
		t.Errorf("expected 3 strengths, got %d", len(assessment.Strengths))
	}
}

func TestEvaluateMissingFieldsDefaultToNeutral(t *testing.T) {
	assessment := evaluateRaw(t, `{"situation": 4.0, "summary": "Partial output."}`)

	if assessment.Situation != 4.0 {
		t.Errorf("situation = %v, expected 4.0", assessment.Situation)
	}
	for name, got := range map[string]float64{
		"task":   assessment.Task,
		"action": assessment.Action,
		"result": assessment.Result,
		"flow":   assessment.Flow,
	} {
		if got != neutralScore {
			t.Errorf("%s = %v, expected neutral %v", name, got, neutralScore)
		}
	}
}

func TestEvaluateOverallDerivedFromComponents(t *testing.T) {
	// No overall supplied: mean of situation/task/action/result, flow excluded
	assessment := evaluateRaw(t, `{"situation": 5, "task": 4, "action": 3, "result": 4, "flow": 1}`)

	expected := (5.0 + 4.0 + 3.0 + 4.0) / 4
	if math.Abs(assessment.Overall-expected) > 1e-9 {
		t.Errorf("overall = %v, expected %v", assessment.Overall, expected)
	}
}

func TestEvaluateScoresClamped(t *testing.T) {
	assessment := evaluateRaw(t, `{"situation": 9.5, "task": -2, "action": 0.4, "result": 5}`)

	if assessment.Situation != 5 {
		t.Errorf("situation = %v, expected clamp to 5", assessment.Situation)
	}
	if assessment.Task != 1 {
		t.Errorf("task = %v, expected clamp to 1", assessment.Task)
	}
	if assessment.Action != 1 {
		t.Errorf("action = %v, expected clamp to 1", assessment.Action)
	}
}

func TestEvaluateOutOfRangeOverallIgnored(t *testing.T) {
	// An overall outside [1,5] is not trusted: the mean of the clamped
	// components replaces it
	assessment := evaluateRaw(t, `{"situation": 4, "task": 4, "action": 2, "result": 2, "overall": 11}`)

	expected := (4.0 + 4.0 + 2.0 + 2.0) / 4
	if math.Abs(assessment.Overall-expected) > 1e-9 {
		t.Errorf("overall = %v, expected derived mean %v", assessment.Overall, expected)
	}

	assessment = evaluateRaw(t, `{"situation": 4, "task": 4, "action": 2, "result": 2, "overall": 0.2}`)
	if math.Abs(assessment.Overall-expected) > 1e-9 {
		t.Errorf("overall = %v, expected derived mean %v", assessment.Overall, expected)
	}
}

func TestEvaluateUnusableOutputDefaultsEverything(t *testing.T) {
	for _, raw := range []string{
		"The candidate did fine, I suppose.",
		`{"situation": "not a number"}`,
	} {
		assessment := evaluateRaw(t, raw)

		for _, got := range []float64{assessment.Situation, assessment.Task, assessment.Action, assessment.Result, assessment.Flow, assessment.Overall} {
			if got != neutralScore {
				t.Errorf("raw %q: score = %v, expected neutral %v", raw, got, neutralScore)
			}
		}
		if assessment.Summary == "" {
			t.Error("summary must never be empty")
		}
		if assessment.EvaluatedBy != "ai" {
			t.Errorf("evaluatedBy = %q, expected ai", assessment.EvaluatedBy)
		}
	}
}

func TestEvaluateProviderDownUsesHeuristic(t *testing.T) {
	provider := &fakeProvider{err: ErrProviderUnavailable}
	evaluator := NewResponseEvaluator(provider, 512)

	assessment := evaluator.Evaluate(context.Background(), "answer", "question", hiringManagerContext(1))

	if assessment.EvaluatedBy != "fallback" {
		t.Errorf("evaluatedBy = %q, expected fallback", assessment.EvaluatedBy)
	}
	for _, got := range []float64{assessment.Situation, assessment.Task, assessment.Action, assessment.Result, assessment.Flow, assessment.Overall} {
		if got != 4.0 {
			t.Errorf("heuristic score = %v, expected 4.0", got)
		}
	}
	if len(assessment.Strengths) == 0 || len(assessment.Improvements) == 0 || len(assessment.Recommendations) == 0 {
		t.Error("heuristic assessment must carry generic feedback lists")
	}
	if !strings.Contains(assessment.Summary, "unavailable") {
		t.Errorf("heuristic summary should state feedback was unavailable, got %q", assessment.Summary)
	}
}

func TestEvaluateNilProviderUsesHeuristic(t *testing.T) {
	evaluator := NewResponseEvaluator(nil, 512)

	assessment := evaluator.Evaluate(context.Background(), "answer", "question", hiringManagerContext(1))
	if assessment.EvaluatedBy != "fallback" {
		t.Errorf("evaluatedBy = %q, expected fallback", assessment.EvaluatedBy)
	}
}

func TestClampScore(t *testing.T) {
	tests := []struct {
		value    float64
		expected float64
	}{
		{0.5, 1},
		{1, 1},
		{3.3, 3.3},
		{5, 5},
		{6.7, 5},
	}

	for _, tt := range tests {
		if got := clampScore(tt.value); got != tt.expected {
			t.Errorf("clampScore(%v) = %v, expected %v", tt.value, got, tt.expected)
		}
	}
}
