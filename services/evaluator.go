package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
)

const neutralScore = 3.0

// STARAssessment is the structured scoring of one candidate response. All
// component scores sit in [1,5]; fractional values are allowed.
type STARAssessment struct {
	Situation       float64
	Task            float64
	Action          float64
	Result          float64
	Flow            float64
	Overall         float64
	Summary         string
	Strengths       []string
	Improvements    []string
	Recommendations []string
	EvaluatedBy     string
}

// ResponseScorer scores candidate responses against the STAR rubric
type ResponseScorer interface {
	Evaluate(ctx context.Context, responseText, questionText string, qc QuestionContext) *STARAssessment
}

// ResponseEvaluator builds scoring prompts, calls the AI provider, and
// normalises the returned JSON into a STARAssessment. Malformed output
// degrades field-by-field to the neutral midpoint; total provider failure
// yields a fixed heuristic assessment. Evaluation never blocks session
// progress and never errors.
type ResponseEvaluator struct {
	provider  Provider
	maxTokens int
}

func NewResponseEvaluator(provider Provider, maxTokens int) *ResponseEvaluator {
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	return &ResponseEvaluator{
		provider:  provider,
		maxTokens: maxTokens,
	}
}

func (e *ResponseEvaluator) Evaluate(ctx context.Context, responseText, questionText string, qc QuestionContext) *STARAssessment {
	if e.provider == nil {
		return heuristicAssessment()
	}

	prompt := e.buildPrompt(responseText, questionText, qc)
	system := "You are an expert interview coach scoring candidate answers with the STAR method. Respond only with the requested JSON object."

	raw, err := e.provider.Send(ctx, prompt, system, e.maxTokens)
	if err != nil {
		slog.Warn("Evaluation falling back to heuristic assessment", "error", err, "stage", qc.InterviewStage)
		return heuristicAssessment()
	}

	assessment := e.parseAssessment(raw)
	slog.Info("Response evaluated", "stage", qc.InterviewStage, "overall", assessment.Overall)
	return assessment
}

func (e *ResponseEvaluator) buildPrompt(responseText, questionText string, qc QuestionContext) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, `Score this candidate's answer to an interview question for a %s role (%s stage interview).

Question: %s

Candidate answer:
%s

Score each STAR component from 1 to 5 (fractional values such as 4.2 are allowed):
- situation: how clearly the candidate set the scene
- task: how clearly their responsibility was defined
- action: the specificity of the actions they took
- result: the concreteness of the outcome
- flow: the overall structure and delivery of the answer

Respond with a single JSON object:
{
  "situation": 0,
  "task": 0,
  "action": 0,
  "result": 0,
  "flow": 0,
  "overall": 0,
  "summary": "two or three sentence qualitative assessment",
  "strengths": ["3-4 items"],
  "improvements": ["2-3 items"],
  "recommendations": ["2-3 items"]
}`, qc.JobPosition, qc.InterviewStage, questionText, responseText)

	return sb.String()
}

type assessmentPayload struct {
	Situation       *float64 `json:"situation"`
	Task            *float64 `json:"task"`
	Action          *float64 `json:"action"`
	Result          *float64 `json:"result"`
	Flow            *float64 `json:"flow"`
	Overall         *float64 `json:"overall"`
	Summary         string   `json:"summary"`
	Strengths       []string `json:"strengths"`
	Improvements    []string `json:"improvements"`
	Recommendations []string `json:"recommendations"`
}

// parseAssessment normalises raw model output. Missing numeric fields default
// to the neutral midpoint rather than failing the whole evaluation; a
// completely unusable payload degrades every field the same way.
func (e *ResponseEvaluator) parseAssessment(raw string) *STARAssessment {
	var payload assessmentPayload

	block, ok := extractJSONObject(raw)
	if !ok {
		slog.Warn("Evaluation output had no JSON object, defaulting all fields",
			"error", &EvaluationParseError{Reason: "no JSON object in provider output"})
	} else if err := json.Unmarshal([]byte(block), &payload); err != nil {
		slog.Warn("Evaluation output was not valid JSON, defaulting all fields",
			"error", &EvaluationParseError{Reason: err.Error()})
		payload = assessmentPayload{}
	}

	assessment := &STARAssessment{
		Situation:       scoreOrNeutral(payload.Situation),
		Task:            scoreOrNeutral(payload.Task),
		Action:          scoreOrNeutral(payload.Action),
		Result:          scoreOrNeutral(payload.Result),
		Flow:            scoreOrNeutral(payload.Flow),
		Summary:         strings.TrimSpace(payload.Summary),
		Strengths:       payload.Strengths,
		Improvements:    payload.Improvements,
		Recommendations: payload.Recommendations,
		EvaluatedBy:     "ai",
	}

	// Trust the model's overall only when it is already a valid score;
	// anything missing or out of range is replaced by the mean of the four
	// STAR components (flow excluded)
	if payload.Overall != nil && *payload.Overall >= 1 && *payload.Overall <= 5 {
		assessment.Overall = *payload.Overall
	} else {
		assessment.Overall = meanOfFour(assessment.Situation, assessment.Task, assessment.Action, assessment.Result)
	}

	if assessment.Summary == "" {
		assessment.Summary = "The answer was evaluated, but no detailed feedback could be produced."
	}
	return assessment
}

// heuristicAssessment is the fixed result used when the provider is
// unreachable: evaluation must never block session progress
func heuristicAssessment() *STARAssessment {
	return &STARAssessment{
		Situation: 4.0,
		Task:      4.0,
		Action:    4.0,
		Result:    4.0,
		Flow:      4.0,
		Overall:   4.0,
		Summary:   "Your answer has been recorded. Detailed AI feedback was unavailable for this response, so indicative scores are shown.",
		Strengths: []string{
			"You completed your answer within the session flow",
			"Your response addressed the question asked",
			"You maintained engagement with the practice session",
		},
		Improvements: []string{
			"Structure answers explicitly around Situation, Task, Action, Result",
			"Quantify outcomes where possible",
		},
		Recommendations: []string{
			"Retry this question later to receive full AI feedback",
			"Practice keeping each STAR component to two or three sentences",
		},
		EvaluatedBy: "fallback",
	}
}

func scoreOrNeutral(value *float64) float64 {
	if value == nil || *value == 0 {
		return neutralScore
	}
	return clampScore(*value)
}

func clampScore(value float64) float64 {
	if value < 1 {
		return 1
	}
	if value > 5 {
		return 5
	}
	return value
}

func meanOfFour(a, b, c, d float64) float64 {
	return (a + b + c + d) / 4
}
