package models

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Interview statuses. Progression is monotonic in practice:
// pending -> questions_generated -> started -> completed | cancelled.
const (
	InterviewPending            = "pending"
	InterviewQuestionsGenerated = "questions_generated"
	InterviewStarted            = "started"
	InterviewCompleted          = "completed"
	InterviewCancelled          = "cancelled"
)

// Question stages. Oral answers are optional free-text notes; written
// answers are required non-empty (enforced at the HTTP boundary).
const (
	StageOral             = "oral"
	StageTechnicalWritten = "technical_written"
)

// ValidDuration reports whether d is one of the allowed interview lengths.
func ValidDuration(d int) bool {
	return d == 15 || d == 30 || d == 45
}

// GeneratedQuestion is immutable after generation except for Answer, which
// goes absent -> present once under normal flow (re-answering before the
// pointer moves past it overwrites).
type GeneratedQuestion struct {
	ID     string  `bson:"id" json:"id"` // "q<N>"
	Text   string  `bson:"text" json:"text"`
	Stage  string  `bson:"stage" json:"stage"`
	Type   string  `bson:"type" json:"type"` // behavioral|technical|situational|...
	Answer *string `bson:"answer,omitempty" json:"answer,omitempty"`
}

type QuestionFeedback struct {
	QuestionID            string `bson:"question_id" json:"questionId"`
	QuestionText          string `bson:"question_text" json:"questionText"`
	UserAnswer            string `bson:"user_answer" json:"userAnswer"`
	IdealAnswer           string `bson:"ideal_answer" json:"idealAnswer"`
	RefinementSuggestions string `bson:"refinement_suggestions" json:"refinementSuggestions"`
	Score                 int    `bson:"score" json:"score"` // 0-10
}

// InterviewFeedback is written atomically as one document once the
// generation capability returns; it is never partially populated.
type InterviewFeedback struct {
	OverallScore               *int               `bson:"overall_score,omitempty" json:"overallScore,omitempty"` // 0-100
	OverallFeedback            string             `bson:"overall_feedback" json:"overallFeedback"`
	StrengthsSummary           string             `bson:"strengths_summary" json:"strengthsSummary"`
	WeaknessesSummary          string             `bson:"weaknesses_summary" json:"weaknessesSummary"`
	OverallAreasForImprovement string             `bson:"overall_areas_for_improvement" json:"overallAreasForImprovement"`
	DetailedQuestionFeedback   []QuestionFeedback `bson:"detailed_question_feedback" json:"detailedQuestionFeedback"`
}

// InterviewSession is the aggregate for one interview attempt.
// Invariant: Feedback is present iff Status == completed AND the feedback
// call succeeded; completed-without-feedback is a valid degraded state.
type InterviewSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	InterviewID string             `bson:"interview_id" json:"id"`
	UserID      string             `bson:"user_id" json:"user_id"`

	Role           string `bson:"role" json:"role"`
	JobDescription string `bson:"job_description,omitempty" json:"job_description,omitempty"`
	Duration       int    `bson:"duration" json:"duration"` // minutes: 15|30|45
	Status         string `bson:"status" json:"status"`

	Questions  []GeneratedQuestion `bson:"questions" json:"questions"`
	Transcript []string            `bson:"transcript" json:"transcript"` // append-only "Speaker: text" lines

	Feedback *InterviewFeedback `bson:"feedback,omitempty" json:"feedback,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the session has ended (by this tab or another).
func (s *InterviewSession) IsTerminal() bool {
	return s.Status == InterviewCompleted || s.Status == InterviewCancelled
}

// questionOrder returns question indices sorted by the numeric suffix of the
// "q<N>" ids, falling back to array position when an id does not parse.
func (s *InterviewSession) questionOrder() []int {
	order := make([]int, len(s.Questions))
	for i := range order {
		order[i] = i
	}
	rank := func(i int) int {
		id := s.Questions[i].ID
		if n, err := strconv.Atoi(strings.TrimPrefix(id, "q")); err == nil && strings.HasPrefix(id, "q") {
			return n
		}
		return i + 1
	}
	sort.SliceStable(order, func(a, b int) bool { return rank(order[a]) < rank(order[b]) })
	return order
}

// CurrentQuestionIndex is the index (into Questions) of the first question in
// declared order lacking an answer. When every question already has an
// answer it falls back to the first question; callers treating that as
// resumable should check AllAnswered first.
func (s *InterviewSession) CurrentQuestionIndex() int {
	order := s.questionOrder()
	for _, i := range order {
		if s.Questions[i].Answer == nil {
			return i
		}
	}
	if len(order) > 0 {
		return order[0]
	}
	return 0
}

// AllAnswered reports whether every question carries an answer.
func (s *InterviewSession) AllAnswered() bool {
	if len(s.Questions) == 0 {
		return false
	}
	for i := range s.Questions {
		if s.Questions[i].Answer == nil {
			return false
		}
	}
	return true
}

// AppendExchange appends the interviewer/candidate pair for one answered
// question to the transcript.
func (s *InterviewSession) AppendExchange(question, answer string) {
	s.Transcript = append(s.Transcript,
		"Interviewer: "+question,
		"Candidate: "+answer,
	)
}

// TranscriptText joins the transcript lines for prompt building.
func (s *InterviewSession) TranscriptText() string {
	return strings.Join(s.Transcript, "\n")
}
