package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/utils"
)

// inProgress matches every status an attempt can still be driven from.
var inProgress = bson.M{"$in": bson.A{models.InterviewQuestionsGenerated, models.InterviewStarted}}

type InterviewRepository interface {
	Create(ctx context.Context, s *models.InterviewSession) error
	GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewSession, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewSession, error)

	// SetQuestions transitions pending -> questions_generated with the
	// generated list; returns false when the session was not pending.
	SetQuestions(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, at time.Time) (bool, error)

	// SaveProgress persists the question list + transcript of an in-progress
	// attempt, bumping status to started.
	SaveProgress(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, transcript []string, at time.Time) error

	// Complete transitions an in-progress attempt to completed with the final
	// list/transcript. Returns false when the attempt was already terminal,
	// so the caller can keep the interview counter at exactly one increment.
	Complete(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, transcript []string, at time.Time) (bool, error)

	// SetFeedback writes the feedback object as a single atomic update.
	SetFeedback(ctx context.Context, interviewID string, fb *models.InterviewFeedback, at time.Time) error

	// Cancel marks a non-terminal attempt cancelled; false if already terminal.
	Cancel(ctx context.Context, interviewID string, at time.Time) (bool, error)
}

type interviewRepo struct {
	col *mongo.Collection
}

func NewInterviewRepo(db *mongo.Database) InterviewRepository {
	return &interviewRepo{col: db.Collection("interviews")}
}

func (r *interviewRepo) Create(ctx context.Context, s *models.InterviewSession) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
	_, err := r.col.InsertOne(ctx, s)
	return err
}

func (r *interviewRepo) GetByInterviewID(ctx context.Context, interviewID string) (*models.InterviewSession, error) {
	var s models.InterviewSession
	err := r.col.FindOne(ctx, bson.M{"interview_id": interviewID}).Decode(&s)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, utils.ErrNotFound
	}
	return &s, err
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.InterviewSession, error) {
	if limit <= 0 {
		limit = 50
	}

	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.InterviewSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *interviewRepo) SetQuestions(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"interview_id": interviewID, "status": models.InterviewPending},
		bson.M{"$set": bson.M{
			"questions":  questions,
			"status":     models.InterviewQuestionsGenerated,
			"updated_at": at.UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *interviewRepo) SaveProgress(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, transcript []string, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"interview_id": interviewID, "status": inProgress},
		bson.M{"$set": bson.M{
			"questions":  questions,
			"transcript": transcript,
			"status":     models.InterviewStarted,
			"updated_at": at.UTC(),
		}},
	)
	return err
}

func (r *interviewRepo) Complete(ctx context.Context, interviewID string, questions []models.GeneratedQuestion, transcript []string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{"interview_id": interviewID, "status": inProgress},
		bson.M{"$set": bson.M{
			"questions":  questions,
			"transcript": transcript,
			"status":     models.InterviewCompleted,
			"updated_at": at.UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (r *interviewRepo) SetFeedback(ctx context.Context, interviewID string, fb *models.InterviewFeedback, at time.Time) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"interview_id": interviewID},
		bson.M{"$set": bson.M{
			"feedback":   fb,
			"updated_at": at.UTC(),
		}},
	)
	return err
}

func (r *interviewRepo) Cancel(ctx context.Context, interviewID string, at time.Time) (bool, error) {
	res, err := r.col.UpdateOne(ctx,
		bson.M{
			"interview_id": interviewID,
			"status":       bson.M{"$nin": bson.A{models.InterviewCompleted, models.InterviewCancelled}},
		},
		bson.M{"$set": bson.M{
			"status":     models.InterviewCancelled,
			"updated_at": at.UTC(),
		}},
	)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}
