package workers

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hireprep/hireprep/internal/ai"
	"github.com/hireprep/hireprep/internal/events"
	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/utils"
)

func newTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type memInterviewRepo struct {
	sessions map[string]*models.InterviewSession
	setCalls int
}

func (r *memInterviewRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	r.sessions[s.InterviewID] = s
	return nil
}

func (r *memInterviewRepo) GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewSession, error) {
	s, ok := r.sessions[interviewID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *memInterviewRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewSession, error) {
	return nil, nil
}

func (r *memInterviewRepo) SetQuestions(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, at time.Time) (bool, error) {
	r.setCalls++
	s, ok := r.sessions[interviewID]
	if !ok || s.Status != models.InterviewPending {
		return false, nil
	}
	s.Questions = questions
	s.Status = models.InterviewQuestionsGenerated
	return true, nil
}

func (r *memInterviewRepo) SaveProgress(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, transcript []string, at time.Time) error {
	return nil
}

func (r *memInterviewRepo) Complete(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, transcript []string, at time.Time) (bool, error) {
	return false, nil
}

func (r *memInterviewRepo) SetFeedback(ctx context.Context, interviewID string, fb *models.InterviewFeedback, at time.Time) error {
	return nil
}

func (r *memInterviewRepo) Cancel(ctx context.Context, interviewID string, at time.Time) (bool, error) {
	return false, nil
}

type stubQuestionGen struct {
	questions []models.GeneratedQuestion
	err       error
	lastReq   ai.QuestionRequest
	calls     int
}

func (g *stubQuestionGen) GenerateQuestions(ctx context.Context, req ai.QuestionRequest) ([]models.GeneratedQuestion, error) {
	g.lastReq = req
	g.calls++
	return g.questions, g.err
}

type recordingPublisher struct {
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, evt events.Event) error {
	p.events = append(p.events, evt)
	return nil
}

func pendingSession() *models.InterviewSession {
	return &models.InterviewSession{
		InterviewID: "iv-1",
		UserID:      "u1",
		Role:        "Backend Engineer",
		Duration:    30,
		Status:      models.InterviewPending,
	}
}

func questionMsg(interviewID string) redis.XMessage {
	return redis.XMessage{
		ID:     "1-0",
		Values: map[string]any{"interview_id": interviewID},
	}
}

func TestHandleMsg_GeneratesAndStoresQuestions(t *testing.T) {
	ctx := context.Background()
	repo := &memInterviewRepo{sessions: map[string]*models.InterviewSession{"iv-1": pendingSession()}}
	gen := &stubQuestionGen{questions: []models.GeneratedQuestion{
		{ID: "q1", Text: "a", Stage: models.StageOral, Type: "behavioral"},
		{ID: "q2", Text: "b", Stage: models.StageTechnicalWritten, Type: "technical"},
	}}
	pub := &recordingPublisher{}
	p := &QuestionWorkerPool{Interviews: repo, Generator: gen, Events: pub}
	p.Logger = newTestLogger()

	p.handleMsg(ctx, questionMsg("iv-1"))

	s := repo.sessions["iv-1"]
	assert.Equal(t, models.InterviewQuestionsGenerated, s.Status)
	assert.Len(t, s.Questions, 2)
	assert.Equal(t, "Backend Engineer", gen.lastReq.Role)
	assert.Equal(t, 30, gen.lastReq.Duration)

	require.Len(t, pub.events, 1)
	assert.Equal(t, "status", pub.events[0].Type)
	assert.Equal(t, models.InterviewQuestionsGenerated, pub.events[0].Status)
}

func TestHandleMsg_SkipsNonPending(t *testing.T) {
	ctx := context.Background()
	s := pendingSession()
	s.Status = models.InterviewQuestionsGenerated
	repo := &memInterviewRepo{sessions: map[string]*models.InterviewSession{"iv-1": s}}
	gen := &stubQuestionGen{}
	p := &QuestionWorkerPool{Interviews: repo, Generator: gen}
	p.Logger = newTestLogger()

	// duplicate stream delivery after the first worker already won
	p.handleMsg(ctx, questionMsg("iv-1"))
	assert.Zero(t, gen.calls)
	assert.Zero(t, repo.setCalls)
}

func TestHandleMsg_GenerationFailurePublishesError(t *testing.T) {
	ctx := context.Background()
	repo := &memInterviewRepo{sessions: map[string]*models.InterviewSession{"iv-1": pendingSession()}}
	gen := &stubQuestionGen{err: errors.New("model down")}
	pub := &recordingPublisher{}
	p := &QuestionWorkerPool{Interviews: repo, Generator: gen, Events: pub}
	p.Logger = newTestLogger()

	p.handleMsg(ctx, questionMsg("iv-1"))

	assert.Equal(t, models.InterviewPending, repo.sessions["iv-1"].Status, "attempt stays pending for a retry")
	require.Len(t, pub.events, 1)
	assert.Equal(t, "error", pub.events[0].Type)
}

func TestHandleMsg_IgnoresUnknownAndEmptyIDs(t *testing.T) {
	ctx := context.Background()
	repo := &memInterviewRepo{sessions: map[string]*models.InterviewSession{}}
	gen := &stubQuestionGen{}
	p := &QuestionWorkerPool{Interviews: repo, Generator: gen}
	p.Logger = newTestLogger()

	p.handleMsg(ctx, questionMsg("missing"))
	p.handleMsg(ctx, redis.XMessage{ID: "2-0", Values: map[string]any{}})
	assert.Zero(t, gen.calls)
}
