package ai

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireprep/hireprep/internal/providers/llm"
)

func TestQuestionCountFor(t *testing.T) {
	assert.Equal(t, 5, QuestionCountFor(15))
	assert.Equal(t, 8, QuestionCountFor(30))
	assert.Equal(t, 12, QuestionCountFor(45))
}

type stubLLM struct {
	reply  string
	err    error
	prompt string
}

func (s *stubLLM) GenerateJSON(ctx context.Context, prompt string) (string, error) {
	s.prompt = prompt
	return s.reply, s.err
}

func (s *stubLLM) Close() error { return nil }

func TestGenerateQuestions_RenumbersIDs(t *testing.T) {
	stub := &stubLLM{reply: `{"questions":[
		{"id":"question-7","text":"Tell me about yourself.","stage":"oral","type":"behavioral","answer":"leaked"},
		{"text":"Explain goroutines.","stage":"technical_written","type":"technical"}
	]}`}
	g := NewGenerator(stub)

	qs, err := g.GenerateQuestions(context.Background(), QuestionRequest{Role: "Backend Engineer", Duration: 15})
	require.NoError(t, err)
	require.Len(t, qs, 2)

	// ids are forced to canonical q1..qN and answers stripped
	assert.Equal(t, "q1", qs[0].ID)
	assert.Equal(t, "q2", qs[1].ID)
	assert.Nil(t, qs[0].Answer)
	assert.Nil(t, qs[1].Answer)

	assert.Contains(t, stub.prompt, "exactly 5 interview questions")
	assert.Contains(t, stub.prompt, "ROLE: Backend Engineer")
}

func TestGenerateQuestions_RejectsMalformedReply(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"not json", "here are your questions!"},
		{"empty list", `{"questions":[]}`},
		{"bad stage", `{"questions":[{"text":"x","stage":"telepathic","type":"technical"}]}`},
		{"missing text", `{"questions":[{"stage":"oral","type":"behavioral"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(&stubLLM{reply: tt.reply})
			_, err := g.GenerateQuestions(context.Background(), QuestionRequest{Role: "x", Duration: 15})

			var se *SchemaError
			require.ErrorAs(t, err, &se)
			assert.NotEmpty(t, se.Errors)
		})
	}
}

func TestGenerateQuestions_ProviderErrorPassesThrough(t *testing.T) {
	g := NewGenerator(&stubLLM{err: llm.ErrOverloaded})
	_, err := g.GenerateQuestions(context.Background(), QuestionRequest{Role: "x", Duration: 15})
	assert.True(t, errors.Is(err, llm.ErrOverloaded))
}

func TestGenerateFeedback(t *testing.T) {
	stub := &stubLLM{reply: `{
		"overallScore": 72,
		"overallFeedback": "good fundamentals",
		"strengthsSummary": "clear communication",
		"weaknessesSummary": "shallow system design answers",
		"overallAreasForImprovement": "practice capacity estimation",
		"detailedQuestionFeedback": [
			{"questionId":"q1","questionText":"Tell me about yourself.","userAnswer":"...","idealAnswer":"...","refinementSuggestions":"...","score":7}
		]
	}`}
	g := NewGenerator(stub)

	fb, err := g.GenerateFeedback(context.Background(), FeedbackRequest{
		InterviewTranscript: "Interviewer: Tell me about yourself.\nCandidate: ...",
		JobDescription:      "the role of Backend Engineer",
	})
	require.NoError(t, err)
	require.NotNil(t, fb.OverallScore)
	assert.Equal(t, 72, *fb.OverallScore)
	assert.Equal(t, "good fundamentals", fb.OverallFeedback)
	require.Len(t, fb.DetailedQuestionFeedback, 1)
	assert.Equal(t, 7, fb.DetailedQuestionFeedback[0].Score)

	assert.Contains(t, stub.prompt, "INTERVIEW TRANSCRIPT")
	assert.Contains(t, stub.prompt, "the role of Backend Engineer")
}

func TestGenerateFeedback_RejectsOutOfRangeScore(t *testing.T) {
	g := NewGenerator(&stubLLM{reply: `{
		"overallScore": 140,
		"overallFeedback": "x",
		"strengthsSummary": "x",
		"weaknessesSummary": "x",
		"overallAreasForImprovement": "x",
		"detailedQuestionFeedback": []
	}`})

	_, err := g.GenerateFeedback(context.Background(), FeedbackRequest{InterviewTranscript: "t"})
	var se *SchemaError
	require.ErrorAs(t, err, &se)
}
