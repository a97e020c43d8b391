package workers

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/hireprep/hireprep/internal/ai"
	"github.com/hireprep/hireprep/internal/events"
	"github.com/hireprep/hireprep/internal/models"
	mongorepo "github.com/hireprep/hireprep/internal/repositories/mongo"
	pgrepo "github.com/hireprep/hireprep/internal/repositories/postgres"
)

const questionStream = "interview:questions"

// RedisQueue is the enqueue side of the question-generation stream.
type RedisQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *RedisQueue) Enqueue(ctx context.Context, interviewID string) error {
	stream := q.Stream
	if stream == "" {
		stream = questionStream
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		Values: map[string]any{
			"interview_id": interviewID,
			"ts_unix":      strconv.FormatInt(time.Now().UTC().Unix(), 10),
		},
	}).Err()
}

// QuestionWorkerPool consumes queued interviews, generates their question
// sets with the LLM and flips the aggregate pending -> questions_generated.
type QuestionWorkerPool struct {
	Redis      *redis.Client
	Interviews mongorepo.InterviewRepository
	Profiles   pgrepo.ProfileRepository
	Generator  ai.QuestionGenerator
	Events     events.Publisher
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *QuestionWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Interviews == nil || p.Generator == nil {
		return errors.New("QuestionWorkerPool missing dependency: Redis/Interviews/Generator must be set")
	}
	if p.Stream == "" {
		p.Stream = questionStream
	}
	if p.Group == "" {
		p.Group = "question-workers"
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "q"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	return nil
}

func (p *QuestionWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    5,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if err == redis.Nil {
				continue
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *QuestionWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	interviewID, _ := msg.Values["interview_id"].(string)
	if interviewID == "" {
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":     msg.ID,
		"interview_id": interviewID,
	})

	session, err := p.Interviews.GetByInterviewID(ctx, interviewID)
	if err != nil {
		log.WithError(err).Warn("interview not found for queued generation")
		return
	}
	// duplicate delivery or a cancelled attempt: nothing to do
	if session.Status != models.InterviewPending {
		return
	}

	candidate := ""
	if p.Profiles != nil {
		if profile, perr := p.Profiles.GetByUserID(ctx, session.UserID); perr == nil {
			candidate = profile.Summary()
		}
	}

	questions, err := p.Generator.GenerateQuestions(ctx, ai.QuestionRequest{
		Role:             session.Role,
		JobDescription:   session.JobDescription,
		CandidateProfile: candidate,
		Duration:         session.Duration,
	})
	if err != nil {
		log.WithError(err).Error("question generation failed")
		p.publish(ctx, events.Event{
			Type:        "error",
			InterviewID: interviewID,
			Status:      session.Status,
			Message:     "question generation failed",
		})
		return
	}

	ok, err := p.Interviews.SetQuestions(ctx, interviewID, questions, time.Now().UTC())
	if err != nil {
		log.WithError(err).Error("failed to store generated questions")
		return
	}
	if !ok {
		// lost the pending->questions_generated race to a duplicate worker
		return
	}

	p.publish(ctx, events.Event{
		Type:        "status",
		InterviewID: interviewID,
		Status:      models.InterviewQuestionsGenerated,
	})
	log.WithField("count", len(questions)).Info("question set generated")
}

func (p *QuestionWorkerPool) publish(ctx context.Context, evt events.Event) {
	if p.Events == nil {
		return
	}
	if err := p.Events.Publish(ctx, evt); err != nil {
		p.Logger.WithError(err).WithField("interview_id", evt.InterviewID).Warn("failed to publish event")
	}
}
