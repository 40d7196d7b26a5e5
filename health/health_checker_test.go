package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/giygas/medbot/chat"
	"github.com/giygas/medbot/symptoms"
	"github.com/giygas/medbot/validation"
	"github.com/google/uuid"
)

// MockChatStore reports fixed session counts
type MockChatStore struct {
	count    int
	capacity int
}

func (m *MockChatStore) Open() (chat.Session, error) { return chat.Session{}, nil }
func (m *MockChatStore) Get(uuid.UUID) (chat.Session, error) { return chat.Session{}, nil }
func (m *MockChatStore) Send(uuid.UUID, string) (chat.Session, error) { return chat.Session{}, nil }
func (m *MockChatStore) Transcript(uuid.UUID) (string, error) { return "", nil }
func (m *MockChatStore) Close(uuid.UUID) error { return nil }
func (m *MockChatStore) Sweep(time.Duration) int { return 0 }
func (m *MockChatStore) Count() int { return m.count }
func (m *MockChatStore) Capacity() int { return m.capacity }

func TestNewHealthChecker(t *testing.T) {
	hc := NewHealthChecker(symptoms.Default(), validation.NewDataValidator(500), &MockChatStore{}, time.Now())
	if hc == nil {
		t.Fatal("NewHealthChecker returned nil")
	}
	if _, ok := hc.(*HealthCheckerImpl); !ok {
		t.Error("NewHealthChecker should return *HealthCheckerImpl")
	}
}

func TestHealthCheck(t *testing.T) {
	broken := symptoms.NewAdvisor(symptoms.DefaultCatalog(), []symptoms.Rule{
		{Requires: []string{"nausea"}, Diagnosis: "Food Poisoning"},
	})

	tests := []struct {
		name           string
		advisor        *symptoms.Advisor
		store          *MockChatStore
		expectedStatus string
		expectedCode   int
	}{
		{"healthy", symptoms.Default(), &MockChatStore{count: 3, capacity: 100}, "healthy", http.StatusOK},
		{"unlimited sessions", symptoms.Default(), &MockChatStore{count: 5000, capacity: 0}, "healthy", http.StatusOK},
		{"near session cap", symptoms.Default(), &MockChatStore{count: 90, capacity: 100}, "degraded", http.StatusServiceUnavailable},
		{"rule references unknown symptom", broken, &MockChatStore{capacity: 100}, "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hc := NewHealthChecker(tt.advisor, validation.NewDataValidator(500), tt.store, time.Now().Add(-90*time.Second))
			status, details, code := hc.HealthCheck()

			if status != tt.expectedStatus {
				t.Errorf("status = %s, want %s", status, tt.expectedStatus)
			}
			if code != tt.expectedCode {
				t.Errorf("code = %d, want %d", code, tt.expectedCode)
			}

			data, ok := details["data"].(map[string]any)
			if !ok {
				t.Fatal("details should contain a data section")
			}
			if data["symptoms"] != 5 {
				t.Errorf("expected 5 symptoms, got %v", data["symptoms"])
			}
			if data["active_sessions"] != tt.store.count {
				t.Errorf("expected %d active sessions, got %v", tt.store.count, data["active_sessions"])
			}
			if _, hasErr := data["catalog_error"]; hasErr != (tt.expectedStatus == "unhealthy") {
				t.Errorf("catalog_error presence mismatch: %v", data)
			}

			if details["uptime"] != "1m 30s" {
				t.Errorf("uptime = %v, want 1m 30s", details["uptime"])
			}
			system, ok := details["system"].(map[string]any)
			if !ok || system["goroutines"] == nil {
				t.Error("system section should report goroutines")
			}
		})
	}
}

func TestFormatUptimeHuman(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{5 * time.Second, "5s"},
		{2*time.Minute + 3*time.Second, "2m 3s"},
		{time.Hour, "1h 0m 0s"},
		{49*time.Hour + time.Minute, "2d 1h 1m 0s"},
	}

	for _, tt := range tests {
		if got := formatUptimeHuman(tt.d); got != tt.expected {
			t.Errorf("formatUptimeHuman(%v) = %s, want %s", tt.d, got, tt.expected)
		}
	}
}
