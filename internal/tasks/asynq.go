// Package tasks provides the async inspection queue using Asynq/Redis or an
// in-memory fallback. Delegates queueing to Asynq, caches results in Redis.
package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/zonetools/zoneinfo/internal/models"
)

const (
	// TaskTypeZoneInspect is the task type identifier for zone inspections
	TaskTypeZoneInspect = "zone:inspect"
	// TaskTypeDNSLookup is the task type identifier for generic DNS lookups
	TaskTypeDNSLookup = "dns:lookup"

	resultKeyPrefix = "zoneinfo:result:"
)

// ZoneInspectPayload is the wire format of a queued zone inspection.
type ZoneInspectPayload struct {
	TaskID    string                 `json:"task_id"`
	Request   models.ZoneInfoRequest `json:"request"`
	CreatedAt string                 `json:"created_at"`
}

// DNSLookupPayload is the wire format of a queued DNS lookup.
type DNSLookupPayload struct {
	TaskID    string                  `json:"task_id"`
	Request   models.DNSLookupRequest `json:"request"`
	CreatedAt string                  `json:"created_at"`
}

// Client wraps Asynq for task enqueueing and Redis for result caching.
type Client struct {
	asynqClient *asynq.Client
	inspector   *asynq.Inspector
	redisClient *redis.Client
	resultTTL   time.Duration
}

// ClientInterface allows swapping between Asynq and memory implementations.
type ClientInterface interface {
	EnqueueZoneInspect(ctx context.Context, req models.ZoneInfoRequest) (string, error)
	EnqueueDNSLookup(ctx context.Context, req models.DNSLookupRequest) (string, error)
	GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatusResponse, error)
	Close() error
}

// NewClient creates Asynq client with Redis result backend.
func NewClient(redisAddr string, resultTTL time.Duration) *Client {
	redisOpts := asynq.RedisClientOpt{Addr: redisAddr}
	rdb := redis.NewClient(&redis.Options{Addr: redisAddr})

	return &Client{
		asynqClient: asynq.NewClient(redisOpts),
		inspector:   asynq.NewInspector(redisOpts),
		redisClient: rdb,
		resultTTL:   resultTTL,
	}
}

// EnqueueZoneInspect creates a zone inspection task with a UUID.
func (c *Client) EnqueueZoneInspect(ctx context.Context, req models.ZoneInfoRequest) (string, error) {
	id := uuid.NewString()
	payload := ZoneInspectPayload{
		TaskID:    id,
		Request:   req,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return id, c.enqueue(ctx, TaskTypeZoneInspect, id, payload)
}

// EnqueueDNSLookup creates a DNS lookup task with a UUID.
func (c *Client) EnqueueDNSLookup(ctx context.Context, req models.DNSLookupRequest) (string, error) {
	id := uuid.NewString()
	payload := DNSLookupPayload{
		TaskID:    id,
		Request:   req,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	return id, c.enqueue(ctx, TaskTypeDNSLookup, id, payload)
}

func (c *Client) enqueue(ctx context.Context, taskType, id string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	task := asynq.NewTask(taskType, data)
	opts := []asynq.Option{
		asynq.TaskID(id),
		asynq.MaxRetry(3),
	}

	if _, err := c.asynqClient.EnqueueContext(ctx, task, opts...); err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	return nil
}

// StoreResult caches a completed task result in Redis with the configured TTL.
// Called by workers; GetTaskStatus reads it back.
func (c *Client) StoreResult(ctx context.Context, taskID string, result *models.TaskResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := c.redisClient.Set(ctx, resultKeyPrefix+taskID, data, c.resultTTL).Err(); err != nil {
		return fmt.Errorf("store result: %w", err)
	}
	return nil
}

// Close shuts down all connections.
func (c *Client) Close() error {
	var errs []error

	if err := c.inspector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("inspector: %w", err))
	}

	if err := c.redisClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis: %w", err))
	}

	if err := c.asynqClient.Close(); err != nil {
		errs = append(errs, fmt.Errorf("asynq: %w", err))
	}

	return errors.Join(errs...)
}

// HasActiveWorkers checks Asynq inspector for connected workers.
func (c *Client) HasActiveWorkers(_ context.Context) bool {
	servers, err := c.inspector.Servers()
	if err != nil {
		return false
	}

	return len(servers) > 0
}

// GetTaskStatus checks the Redis result cache first, falls back to the Asynq
// inspector. Pragmatic approach: cache completed results, poll Asynq for
// pending/active state.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (*models.TaskStatusResponse, error) {
	resultJSON, err := c.redisClient.Get(ctx, resultKeyPrefix+taskID).Result()
	if err == nil {
		// Result cached - task completed
		var res models.TaskResult
		if json.Unmarshal([]byte(resultJSON), &res) == nil {
			return &models.TaskStatusResponse{
				TaskID: taskID,
				Status: "SUCCESS",
				Result: &res,
			}, nil
		}
	}

	// Not cached - check Asynq queue
	taskInfo, err := c.inspector.GetTaskInfo("default", taskID)
	if err != nil {
		return nil, fmt.Errorf("not found")
	}

	response := &models.TaskStatusResponse{
		TaskID:      taskID,
		CreatedAt:   taskInfo.NextProcessAt,
		CompletedAt: taskInfo.CompletedAt,
	}

	switch taskInfo.State {
	case asynq.TaskStateActive:
		response.Status = "ACTIVE"
	case asynq.TaskStateRetry:
		response.Status = "RETRY"
	case asynq.TaskStateArchived:
		response.Status = "FAILURE"
		if taskInfo.LastErr != "" {
			errMsg := taskInfo.LastErr
			response.Error = &errMsg
		}
	default:
		response.Status = "PENDING"
	}

	return response, nil
}
