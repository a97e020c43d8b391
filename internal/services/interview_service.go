package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hireprep/hireprep/internal/ai"
	"github.com/hireprep/hireprep/internal/events"
	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/providers/llm"
	"github.com/hireprep/hireprep/internal/providers/stt"
	mongorepo "github.com/hireprep/hireprep/internal/repositories/mongo"
	pgrepo "github.com/hireprep/hireprep/internal/repositories/postgres"
	"github.com/hireprep/hireprep/internal/utils"
)

// QuestionEnqueuer hands an interview id to the question-generation worker
// pool. Implemented by workers.RedisQueue.
type QuestionEnqueuer interface {
	Enqueue(ctx context.Context, interviewID string) error
}

// AdvanceResult reports one answer submission. Persisted is false when the
// intermediate save failed: progression still happened in the returned
// aggregate (availability over durability for a single answer), the caller
// surfaces a warning. Finalized is true when this was the last answer.
type AdvanceResult struct {
	Session   *models.InterviewSession
	Persisted bool
	Finalized bool
}

type InterviewService interface {
	// Start creates a pending attempt and queues question generation.
	Start(ctx context.Context, userID, role, jobDescription string, duration int) (*models.InterviewSession, error)

	Get(ctx context.Context, userID, interviewID string) (*models.InterviewSession, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewSession, error)

	// Advance records one answer onto the current question, appends the
	// interviewer/candidate exchange to the transcript, persists, and moves
	// the pointer. On the last question it finalizes instead: marks the
	// attempt completed, bumps the lifetime counter, generates feedback and
	// persists it as a separate write. Refuses once the attempt is terminal.
	Advance(ctx context.Context, userID, interviewID, answer string, audio []byte) (*AdvanceResult, error)

	Cancel(ctx context.Context, userID, interviewID string) (*models.InterviewSession, error)
}

type interviewService struct {
	interviews mongorepo.InterviewRepository
	users      pgrepo.UserRepository
	profiles   pgrepo.ProfileRepository
	feedback   ai.FeedbackGenerator
	queue      QuestionEnqueuer
	pub        events.Publisher
	stt        stt.Provider // optional; oral answers may arrive as audio
	log        *logrus.Logger
}

func NewInterviewService(
	interviews mongorepo.InterviewRepository,
	users pgrepo.UserRepository,
	profiles pgrepo.ProfileRepository,
	feedback ai.FeedbackGenerator,
	queue QuestionEnqueuer,
	pub events.Publisher,
	sttProvider stt.Provider,
	log *logrus.Logger,
) InterviewService {
	if log == nil {
		log = logrus.New()
	}
	return &interviewService{
		interviews: interviews,
		users:      users,
		profiles:   profiles,
		feedback:   feedback,
		queue:      queue,
		pub:        pub,
		stt:        sttProvider,
		log:        log,
	}
}

func (s *interviewService) Start(ctx context.Context, userID, role, jobDescription string, duration int) (*models.InterviewSession, error) {
	const op = "InterviewService.Start"

	if userID == "" || role == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and role are required", nil)
	}
	if !models.ValidDuration(duration) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "duration must be 15, 30 or 45 minutes", nil)
	}

	now := time.Now().UTC()
	session := &models.InterviewSession{
		InterviewID:    uuid.NewString(),
		UserID:         userID,
		Role:           role,
		JobDescription: jobDescription,
		Duration:       duration,
		Status:         models.InterviewPending,
		Questions:      []models.GeneratedQuestion{},
		Transcript:     []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.interviews.Create(ctx, session); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to create interview", err)
	}

	if err := s.queue.Enqueue(ctx, session.InterviewID); err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to queue question generation", err)
	}
	return session, nil
}

func (s *interviewService) Get(ctx context.Context, userID, interviewID string) (*models.InterviewSession, error) {
	const op = "InterviewService.Get"

	if interviewID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}

	session, err := s.interviews.GetByInterviewID(ctx, interviewID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to load interview", err)
	}
	if userID != "" && session.UserID != userID {
		return nil, utils.E(utils.CodeForbidden, op, "forbidden", nil)
	}
	return session, nil
}

func (s *interviewService) ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewSession, error) {
	const op = "InterviewService.ListByUser"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	out, err := s.interviews.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list interviews", err)
	}
	return out, nil
}

func (s *interviewService) Advance(ctx context.Context, userID, interviewID, answer string, audio []byte) (*AdvanceResult, error) {
	const op = "InterviewService.Advance"

	session, err := s.Get(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}

	// The store is authoritative: a terminal status observed here means
	// another tab (or this one, racing) already ended the attempt.
	if session.IsTerminal() {
		return nil, utils.E(utils.CodeConflict, op, "interview already ended", nil)
	}
	if session.Status == models.InterviewPending || len(session.Questions) == 0 {
		return nil, utils.E(utils.CodeConflict, op, "questions are still being generated", nil)
	}

	// Optional voice path for oral answers: transcription failure degrades
	// to the provided text, never fails the submission.
	if len(audio) > 0 && s.stt != nil {
		if text, _, terr := s.stt.Transcribe(ctx, audio, ""); terr != nil {
			s.log.WithError(terr).WithField("interview_id", interviewID).Warn("answer transcription failed; keeping text answer")
		} else if text != "" {
			answer = text
		}
	}

	idx := session.CurrentQuestionIndex()
	q := &session.Questions[idx]
	q.Answer = &answer
	session.AppendExchange(q.Text, answer)
	session.UpdatedAt = time.Now().UTC()

	if !session.AllAnswered() {
		persisted := true
		if err := s.interviews.SaveProgress(ctx, interviewID, session.Questions, session.Transcript, session.UpdatedAt); err != nil {
			// availability over durability: the in-memory attempt still
			// advances, at the cost of possibly losing this one answer
			s.log.WithError(err).WithFields(logrus.Fields{
				"interview_id": interviewID,
				"question_id":  q.ID,
			}).Error("failed to persist answer; progression continues")
			persisted = false
		} else {
			session.Status = models.InterviewStarted
		}

		s.publish(ctx, events.Event{
			Type:          "question_answered",
			InterviewID:   interviewID,
			Status:        session.Status,
			QuestionIndex: idx,
		})
		return &AdvanceResult{Session: session, Persisted: persisted}, nil
	}

	return s.finalize(ctx, session)
}

// finalize is the terminal transition. Effects in order: (a) persist the
// final list/transcript with status=completed, (b) bump the lifetime
// interview counter exactly once, (c) generate feedback, (d) persist the
// feedback as a separate write. Losing the (a) transition means another
// actor already ended the attempt, and finalize stops there without (b)-(d).
// A failure after (a) leaves a completed attempt with no feedback; that
// degraded state is user-visible and is not silently retried (no idempotency
// key, so a retry could double-generate).
func (s *interviewService) finalize(ctx context.Context, session *models.InterviewSession) (*AdvanceResult, error) {
	const op = "InterviewService.Finalize"

	interviewID := session.InterviewID
	now := time.Now().UTC()

	transitioned, err := s.interviews.Complete(ctx, interviewID, session.Questions, session.Transcript, now)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to complete interview", err)
	}
	if !transitioned {
		// another actor (a second tab, or a racing cancel) already ended the
		// attempt; the stored status is authoritative and generating feedback
		// here would duplicate the terminal side effects
		msg := "interview already ended"
		if cur, gerr := s.interviews.GetByInterviewID(ctx, interviewID); gerr == nil {
			session.Status = cur.Status
			if cur.Status == models.InterviewCancelled {
				msg = "interview was cancelled"
			}
		}
		return nil, utils.E(utils.CodeConflict, op, msg, nil)
	}
	session.Status = models.InterviewCompleted
	session.UpdatedAt = now

	// guarded by the started->completed transition, so exactly one increment
	// per attempt even if two tabs submit the last answer
	if err := s.users.IncrementInterviews(ctx, session.UserID); err != nil {
		s.log.WithError(err).WithField("user_id", session.UserID).Warn("failed to increment interview counter")
	}

	s.publish(ctx, events.Event{
		Type:        "status",
		InterviewID: interviewID,
		Status:      models.InterviewCompleted,
	})

	jobContext := session.JobDescription
	if jobContext == "" {
		jobContext = "the role of " + session.Role
	}

	candidate := "No candidate profile on file."
	if profile, perr := s.profiles.GetByUserID(ctx, session.UserID); perr == nil {
		candidate = profile.Summary()
	}

	fb, err := s.feedback.GenerateFeedback(ctx, ai.FeedbackRequest{
		InterviewTranscript: session.TranscriptText(),
		JobDescription:      jobContext,
		CandidateProfile:    candidate,
		Questions:           session.Questions,
	})
	if err != nil {
		// the attempt stays completed with no feedback
		s.log.WithError(err).WithField("interview_id", interviewID).Error("feedback generation failed")
		s.publish(ctx, events.Event{Type: "error", InterviewID: interviewID, Status: session.Status, Message: "feedback generation failed"})

		var se *ai.SchemaError
		switch {
		case errors.Is(err, llm.ErrOverloaded):
			return &AdvanceResult{Session: session, Persisted: true, Finalized: true},
				utils.E(utils.CodeOverloaded, op, "the feedback model is overloaded; your interview is saved and feedback will be unavailable for now", err)
		case errors.As(err, &se):
			return &AdvanceResult{Session: session, Persisted: true, Finalized: true},
				utils.E(utils.CodeUnavailable, op, "feedback did not match the expected format", err)
		default:
			return &AdvanceResult{Session: session, Persisted: true, Finalized: true},
				utils.E(utils.CodeUnavailable, op, "feedback generation failed", err)
		}
	}

	if err := s.interviews.SetFeedback(ctx, interviewID, fb, time.Now().UTC()); err != nil {
		s.log.WithError(err).WithField("interview_id", interviewID).Error("failed to persist feedback")
		return &AdvanceResult{Session: session, Persisted: true, Finalized: true},
			utils.E(utils.CodeInternal, op, "failed to persist feedback", err)
	}
	session.Feedback = fb

	s.publish(ctx, events.Event{
		Type:        "feedback_ready",
		InterviewID: interviewID,
		Status:      session.Status,
	})
	return &AdvanceResult{Session: session, Persisted: true, Finalized: true}, nil
}

func (s *interviewService) Cancel(ctx context.Context, userID, interviewID string) (*models.InterviewSession, error) {
	const op = "InterviewService.Cancel"

	session, err := s.Get(ctx, userID, interviewID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.InterviewCompleted {
		return nil, utils.E(utils.CodeConflict, op, "interview already completed", nil)
	}

	now := time.Now().UTC()
	if _, err := s.interviews.Cancel(ctx, interviewID, now); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to cancel interview", err)
	}
	session.Status = models.InterviewCancelled
	session.UpdatedAt = now

	s.publish(ctx, events.Event{
		Type:        "status",
		InterviewID: interviewID,
		Status:      models.InterviewCancelled,
	})
	return session, nil
}

func (s *interviewService) publish(ctx context.Context, evt events.Event) {
	if s.pub == nil {
		return
	}
	if err := s.pub.Publish(ctx, evt); err != nil {
		s.log.WithError(err).WithField("interview_id", evt.InterviewID).Warn("failed to publish interview event")
	}
}
