package tasks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/models"
)

type memoryClient struct {
	mu    sync.Mutex
	tasks map[string]*models.TaskResult
	ttl   map[string]time.Time
	cfg   *config.Config
}

// NewMemoryClient creates an in-memory task queue for dev/testing without Redis.
// Uses a background context for the work to avoid HTTP timeout coupling.
// Returns ClientInterface for consistent API with the Asynq implementation.
func NewMemoryClient(cfg *config.Config) ClientInterface {
	return &memoryClient{
		tasks: make(map[string]*models.TaskResult),
		ttl:   make(map[string]time.Time),
		cfg:   cfg,
	}
}

// EnqueueZoneInspect runs the inspection in a background goroutine.
func (m *memoryClient) EnqueueZoneInspect(_ context.Context, req models.ZoneInfoRequest) (string, error) {
	id := m.register("zone")

	// Independent context - the HTTP request may time out before the work completes
	go func() {
		result := RunZoneInspect(context.Background(), m.cfg, req)
		m.complete(id, result)
	}()

	return id, nil
}

// EnqueueDNSLookup runs the lookup in a background goroutine.
func (m *memoryClient) EnqueueDNSLookup(_ context.Context, req models.DNSLookupRequest) (string, error) {
	id := m.register("lookup")

	go func() {
		result := RunDNSLookup(context.Background(), m.cfg, req)
		m.complete(id, result)
	}()

	return id, nil
}

func (m *memoryClient) register(kind string) string {
	id := fmt.Sprintf("mem-%s-%s", kind, time.Now().Format("20060102150405.000000000"))
	m.mu.Lock()
	m.tasks[id] = nil
	m.ttl[id] = time.Now().Add(1 * time.Hour)
	m.mu.Unlock()
	return id
}

func (m *memoryClient) complete(id string, result *models.TaskResult) {
	m.mu.Lock()
	m.tasks[id] = result
	m.mu.Unlock()
}

func (m *memoryClient) Close() error {
	return nil
}

// GetTaskStatus returns PENDING while executing, SUCCESS when done.
func (m *memoryClient) GetTaskStatus(_ context.Context, taskID string) (*models.TaskStatusResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.ttl[taskID]
	if !exists {
		return nil, fmt.Errorf("not found")
	}

	res := m.tasks[taskID]

	if res == nil {
		return &models.TaskStatusResponse{
			TaskID: taskID,
			Status: "PENDING",
		}, nil
	}

	return &models.TaskStatusResponse{
		TaskID: taskID,
		Status: "SUCCESS",
		Result: res,
	}, nil
}
