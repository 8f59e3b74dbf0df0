package services

import (
	"fmt"
	"strings"
)

// defaultStage keys the template pool when a session carries an
// unrecognised stage name
const defaultStage = "hiring-manager"

// stageCategories is the allowed category set per interview stage. The first
// entry is the stage's default, used to normalise unknown AI categories.
var stageCategories = map[string][]string{
	"phone-screening":          {"background", "motivation", "behavioral"},
	"hiring-manager":           {"behavioral", "situational", "leadership", "role-fit"},
	"functional-team":          {"behavioral", "teamwork", "problem-solving"},
	"subject-matter-expertise": {"technical", "problem-solving", "situational"},
	"executive-final":          {"leadership", "strategic", "company-fit"},
}

type fallbackTemplate struct {
	text     string // %s is the job position
	category string
}

// fallbackTemplates is the deterministic question pool used when the provider
// is unavailable or returns unusable output
var fallbackTemplates = map[string][]fallbackTemplate{
	"phone-screening": {
		{"Walk me through your background and what led you to apply for the %s role.", "background"},
		{"What interests you most about working as a %s?", "motivation"},
		{"Tell me about a recent accomplishment you are proud of in your work as a %s.", "behavioral"},
	},
	"hiring-manager": {
		{"Tell me about a time you had to deliver a difficult project as a %s. What was the situation and what did you do?", "behavioral"},
		{"Describe a situation where you disagreed with a stakeholder while working as a %s. How did you handle it?", "situational"},
		{"Give me an example of a time you led an initiative in your role as a %s. What was the result?", "leadership"},
		{"Why do you believe you are a strong fit for this %s position?", "role-fit"},
	},
	"functional-team": {
		{"Describe a time you collaborated with a difficult teammate while working as a %s.", "teamwork"},
		{"Tell me about a problem you solved recently as a %s and how you approached it.", "problem-solving"},
		{"Give an example of a time you had to adapt quickly to a change in priorities as a %s.", "behavioral"},
	},
	"subject-matter-expertise": {
		{"Walk me through the most technically challenging problem you have solved as a %s.", "technical"},
		{"Describe how you would approach diagnosing a critical failure in an area you own as a %s.", "problem-solving"},
		{"Tell me about a time your expertise as a %s changed the direction of a project.", "situational"},
	},
	"executive-final": {
		{"Tell me about a time you set direction for a team or organisation as a %s.", "leadership"},
		{"How would you shape strategy in your first six months in this %s role?", "strategic"},
		{"What draws you to our mission, and how does this %s role fit your longer-term goals?", "company-fit"},
	},
}

// allowedCategories returns the category set for a stage
func allowedCategories(stage string) []string {
	if categories, ok := stageCategories[normalizeStage(stage)]; ok {
		return categories
	}
	return stageCategories[defaultStage]
}

// normalizeCategory maps an AI-supplied category onto the stage's allowed
// set, defaulting to the stage's first category when unrecognised
func normalizeCategory(stage, category string) string {
	normalized := strings.ToLower(strings.TrimSpace(category))
	allowed := allowedCategories(stage)
	for _, c := range allowed {
		if c == normalized {
			return c
		}
	}
	return allowed[0]
}

func normalizeStage(stage string) string {
	normalized := strings.ToLower(strings.TrimSpace(stage))
	if _, ok := stageCategories[normalized]; ok {
		return normalized
	}
	return defaultStage
}

// fallbackQuestion selects a deterministic template by stage and question
// number, so a retried generation for the same step yields the same question
func fallbackQuestion(qc QuestionContext) *GeneratedQuestion {
	pool := fallbackTemplates[normalizeStage(qc.InterviewStage)]

	idx := 0
	if qc.QuestionNumber > 0 {
		idx = (qc.QuestionNumber - 1) % len(pool)
	}
	template := pool[idx]

	position := qc.JobPosition
	if position == "" {
		position = "professional"
	}

	return &GeneratedQuestion{
		QuestionText:       fmt.Sprintf(template.text, position),
		Category:           template.category,
		Difficulty:         qc.Difficulty,
		StarMethodRelevant: true,
		GeneratedBy:        "fallback",
	}
}
