package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/zonetools/zoneinfo/internal/config"
	"github.com/zonetools/zoneinfo/internal/models"
)

const mockTaskID = "mock-task-id"

type mockTasksClient struct{}

func (m *mockTasksClient) Close() error { return nil }
func (m *mockTasksClient) EnqueueZoneInspect(_ context.Context, _ models.ZoneInfoRequest) (string, error) {
	return mockTaskID, nil
}
func (m *mockTasksClient) EnqueueDNSLookup(_ context.Context, _ models.DNSLookupRequest) (string, error) {
	return mockTaskID, nil
}
func (m *mockTasksClient) GetTaskStatus(_ context.Context, id string) (*models.TaskStatusResponse, error) {
	if id != mockTaskID {
		return nil, fmt.Errorf("not found")
	}
	return &models.TaskStatusResponse{TaskID: id, Status: "SUCCESS"}, nil
}

func setupTestServer() *Server {
	cfg := &config.Config{}
	s := NewServer(cfg)
	s.SetTasksClient(&mockTasksClient{})
	return s
}

func TestZoneInfoEndpoint(t *testing.T) {
	server := setupTestServer()

	payload := models.ZoneInfoRequest{
		Zone: "example.com",
		Resolvers: []models.Resolver{
			{Target: "udp://9.9.9.9:53"},
		},
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/zone-info", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response models.TaskResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.TaskID == "" {
		t.Error("Expected task_id in response")
	}
}

func TestZoneInfoEndpointRejectsInvalidZone(t *testing.T) {
	server := setupTestServer()

	payload := models.ZoneInfoRequest{
		Zone:      "bad zone name",
		Resolvers: []models.Resolver{{Target: "udp://9.9.9.9:53"}},
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/zone-info", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestZoneInfoEndpointNoResolvers(t *testing.T) {
	server := setupTestServer()

	payload := models.ZoneInfoRequest{Zone: "example.com"}
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/zone-info", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	// No resolvers in request and none in config.
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}
}

func TestZoneInfoEndpointTooManyResolvers(t *testing.T) {
	server := setupTestServer()

	payload := models.ZoneInfoRequest{Zone: "example.com"}
	for i := 0; i <= models.MaxResolversPerReq; i++ {
		payload.Resolvers = append(payload.Resolvers, models.Resolver{
			Target: fmt.Sprintf("udp://192.0.2.%d:53", i+1),
		})
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/zone-info", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d: %s", w.Code, w.Body.String())
	}

	var response models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if !strings.Contains(response.Error, "too many resolvers") {
		t.Errorf("Expected 'too many resolvers' error, got '%s'", response.Error)
	}
}

func TestDNSLookupEndpoint(t *testing.T) {
	server := setupTestServer()

	payload := models.DNSLookupRequest{
		Domain: "example.com",
		QType:  "SOA",
		Resolvers: []models.Resolver{
			{Target: "udp://9.9.9.9:53"},
		},
	}

	body, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/dns-lookup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var response models.TaskResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.TaskID == "" {
		t.Error("Expected task_id in response")
	}
}

func TestGetTaskStatusEndpoint(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/tasks/"+mockTaskID, nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response models.TaskStatusResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.TaskID != mockTaskID {
		t.Errorf("Expected task_id '%s', got '%s'", mockTaskID, response.TaskID)
	}
}

func TestGetTaskStatusNotFound(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/tasks/unknown-task", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	server := setupTestServer()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response models.HealthResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if response.Status != "ok" {
		t.Errorf("Expected status 'ok', got '%s'", response.Status)
	}
}
