// Package ai builds the prompts for question-set and feedback generation and
// parse-and-validates the model replies at the boundary.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/providers/llm"
)

type QuestionRequest struct {
	Role             string
	JobDescription   string
	CandidateProfile string
	Duration         int // minutes
}

type FeedbackRequest struct {
	InterviewTranscript string
	JobDescription      string
	CandidateProfile    string
	Questions           []models.GeneratedQuestion
}

type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, req QuestionRequest) ([]models.GeneratedQuestion, error)
}

type FeedbackGenerator interface {
	GenerateFeedback(ctx context.Context, req FeedbackRequest) (*models.InterviewFeedback, error)
}

// QuestionCountFor scales the question list with the interview length.
func QuestionCountFor(duration int) int {
	switch duration {
	case 15:
		return 5
	case 30:
		return 8
	default:
		return 12
	}
}

// Generator implements both generation capabilities over one LLM provider.
type Generator struct {
	llm llm.Provider
}

func NewGenerator(p llm.Provider) *Generator {
	return &Generator{llm: p}
}

func (g *Generator) GenerateQuestions(ctx context.Context, req QuestionRequest) ([]models.GeneratedQuestion, error) {
	n := QuestionCountFor(req.Duration)

	var sb strings.Builder
	sb.WriteString("You are an experienced hiring interviewer preparing a mock interview.\n\n")
	sb.WriteString(fmt.Sprintf("Produce exactly %d interview questions for the role below.\n", n))
	sb.WriteString("Mix oral questions (answered verbally) with technical_written ones.\n\n")
	sb.WriteString("ROLE: " + req.Role + "\n\n")
	if req.JobDescription != "" {
		sb.WriteString("JOB DESCRIPTION:\n" + req.JobDescription + "\n\n")
	}
	if req.CandidateProfile != "" {
		sb.WriteString("CANDIDATE PROFILE:\n" + req.CandidateProfile + "\n\n")
	}
	sb.WriteString(`Reply with JSON only, shaped as:
{"questions":[{"id":"q1","text":"...","stage":"oral","type":"behavioral"}]}
Allowed stage values: "oral", "technical_written".
Type is a short category such as "behavioral", "technical", "situational".`)

	raw, err := g.llm.GenerateJSON(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	if err := validateAgainst(questionSetSchema, raw); err != nil {
		return nil, err
	}

	var payload struct {
		Questions []models.GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, &SchemaError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}

	// Renumber so ids are always the canonical q1..qN the pointer logic
	// orders by, whatever the model chose to emit.
	for i := range payload.Questions {
		payload.Questions[i].ID = fmt.Sprintf("q%d", i+1)
		payload.Questions[i].Answer = nil
	}
	return payload.Questions, nil
}

func (g *Generator) GenerateFeedback(ctx context.Context, req FeedbackRequest) (*models.InterviewFeedback, error) {
	var sb strings.Builder
	sb.WriteString("You are an experienced hiring interviewer scoring a finished mock interview.\n\n")
	sb.WriteString("INTERVIEW TRANSCRIPT:\n" + req.InterviewTranscript + "\n\n")
	if req.JobDescription != "" {
		sb.WriteString("JOB CONTEXT:\n" + req.JobDescription + "\n\n")
	}
	if req.CandidateProfile != "" {
		sb.WriteString("CANDIDATE PROFILE:\n" + req.CandidateProfile + "\n\n")
	}
	if len(req.Questions) > 0 {
		sb.WriteString("QUESTIONS ASKED:\n")
		for _, q := range req.Questions {
			ans := ""
			if q.Answer != nil {
				ans = *q.Answer
			}
			sb.WriteString(fmt.Sprintf("- [%s] %s\n  answer: %s\n", q.ID, q.Text, ans))
		}
		sb.WriteString("\n")
	}
	sb.WriteString(`Score the candidate. Reply with JSON only, shaped as:
{
  "overallScore": 0-100,
  "overallFeedback": "...",
  "strengthsSummary": "...",
  "weaknessesSummary": "...",
  "overallAreasForImprovement": "...",
  "detailedQuestionFeedback": [
    {"questionId":"q1","questionText":"...","userAnswer":"...",
     "idealAnswer":"...","refinementSuggestions":"...","score":0-10}
  ]
}`)

	raw, err := g.llm.GenerateJSON(ctx, sb.String())
	if err != nil {
		return nil, err
	}

	if err := validateAgainst(feedbackSchema, raw); err != nil {
		return nil, err
	}

	var fb models.InterviewFeedback
	if err := json.Unmarshal([]byte(raw), &fb); err != nil {
		return nil, &SchemaError{Errors: []FieldError{{Field: "(root)", Message: err.Error()}}}
	}
	return &fb, nil
}
