package queue

import (
	"context"
	"encoding/json"

	"voicenotes/internal/config"
	"voicenotes/internal/model"

	"github.com/go-redis/redis/v8"
)

// Producer pushes transcription jobs onto the Redis queue for a separate
// worker process. It satisfies the ingest.Dispatcher contract.
type Producer struct {
	client *redis.Client
	cfg    *config.Config
}

func NewProducer(redisClient *RedisClient, cfg *config.Config) *Producer {
	return &Producer{
		client: redisClient.Client(),
		cfg:    cfg,
	}
}

func (p *Producer) Dispatch(ctx context.Context, job model.TranscriptionJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}

	return p.client.LPush(ctx, p.cfg.Redis.TranscriptionQueue, data).Err()
}
