// Package events fans interview aggregate changes out to live listeners
// (open tabs) through Redis pub/sub. Deliveries may arrive duplicated or out
// of order; consumers key off the carried status rather than event order.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

type Event struct {
	Type          string    `json:"type"` // status|question_answered|feedback_ready|error
	InterviewID   string    `json:"interview_id"`
	Status        string    `json:"status,omitempty"`
	QuestionIndex int       `json:"question_index,omitempty"`
	Message       string    `json:"message,omitempty"`
	At            time.Time `json:"at"`
}

type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// Channel is the pub/sub channel carrying one interview's events.
func Channel(interviewID string) string {
	return "interview:" + interviewID + ":events"
}

type RedisPublisher struct {
	rdb *redis.Client
}

func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

func (p *RedisPublisher) Publish(ctx context.Context, evt Event) error {
	if evt.At.IsZero() {
		evt.At = time.Now().UTC()
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	return p.rdb.Publish(ctx, Channel(evt.InterviewID), b).Err()
}
