package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/giygas/medbot/chat"
	"github.com/giygas/medbot/symptoms"
	"github.com/giygas/medbot/validation"
	"github.com/go-chi/chi/v5"
)

// MockHealthChecker returns canned health results
type MockHealthChecker struct {
	status  string
	details map[string]any
	code    int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.code
}

func newTestHandler(opts chat.Options) (*HTTPHandlerImpl, *chat.Store) {
	advisor := symptoms.Default()
	store := chat.NewStore(ChatResponder(advisor), opts)
	health := &MockHealthChecker{status: "healthy", code: http.StatusOK, details: map[string]any{}}
	return NewHTTPHandler(advisor, store, validation.NewDataValidator(500), health), store
}

// withURLParam attaches a chi route context carrying one URL parameter
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func decodeSession(t *testing.T, rr *httptest.ResponseRecorder) SessionResponse {
	t.Helper()
	var resp SessionResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid session JSON: %v (%s)", err, rr.Body.String())
	}
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error JSON: %v", err)
	}
	return body
}

func TestRespondWithError(t *testing.T) {
	h, _ := newTestHandler(chat.Options{})
	rr := httptest.NewRecorder()

	h.RespondWithError(rr, http.StatusNotFound, "Symptom not found")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected content type %q", ct)
	}
	body := decodeError(t, rr)
	if body["error"] != "Not Found" || body["message"] != "Symptom not found" || body["code"] != float64(404) {
		t.Errorf("unexpected error body: %v", body)
	}
}

func TestListSymptoms(t *testing.T) {
	h, _ := newTestHandler(chat.Options{})
	rr := httptest.NewRecorder()
	h.ListSymptoms(rr, httptest.NewRequest(http.MethodGet, "/symptoms", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var got []symptoms.Symptom
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	want := []string{"headache", "fever", "cold", "cough", "sore throat"}
	if len(got) != len(want) {
		t.Fatalf("expected %d symptoms, got %d", len(want), len(got))
	}
	for i, key := range want {
		if got[i].Key != key {
			t.Errorf("symptom %d = %s, want %s", i, got[i].Key, key)
		}
	}
}

func TestGetSymptom(t *testing.T) {
	tests := []struct {
		name         string
		param        string
		expectedCode int
	}{
		{"known symptom", "fever", http.StatusOK},
		{"case insensitive", "Sore Throat", http.StatusOK},
		{"unknown symptom", "rash", http.StatusNotFound},
		{"blank", "   ", http.StatusBadRequest},
		{"dangerous input", "<script>alert(1)</script>", http.StatusBadRequest},
	}

	h, _ := newTestHandler(chat.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withURLParam(httptest.NewRequest(http.MethodGet, "/symptoms/x", nil), "name", tt.param)
			rr := httptest.NewRecorder()
			h.GetSymptom(rr, req)

			if rr.Code != tt.expectedCode {
				t.Errorf("expected %d, got %d: %s", tt.expectedCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestDiagnose(t *testing.T) {
	tests := []struct {
		name              string
		body              string
		expectedCode      int
		expectedDiagnosis string
		expectedSymptoms  []string
	}{
		{
			name:              "viral fever",
			body:              `{"inputs": ["I have a headache", "and a fever"]}`,
			expectedCode:      http.StatusOK,
			expectedDiagnosis: "Viral Fever",
			expectedSymptoms:  []string{"headache", "fever"},
		},
		{
			name:              "nothing recognized",
			body:              `{"inputs": ["my knee hurts"]}`,
			expectedCode:      http.StatusOK,
			expectedDiagnosis: symptoms.FallbackDiagnosis,
			expectedSymptoms:  []string{},
		},
		{"invalid json", `{"inputs": [`, http.StatusBadRequest, "", nil},
		{"no inputs", `{"inputs": []}`, http.StatusBadRequest, "", nil},
		{"only blanks", `{"inputs": ["", "  "]}`, http.StatusBadRequest, "", nil},
	}

	h, _ := newTestHandler(chat.Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Diagnose(rr, httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(tt.body)))

			if rr.Code != tt.expectedCode {
				t.Fatalf("expected %d, got %d: %s", tt.expectedCode, rr.Code, rr.Body.String())
			}
			if tt.expectedCode != http.StatusOK {
				return
			}

			var advice symptoms.Advice
			if err := json.Unmarshal(rr.Body.Bytes(), &advice); err != nil {
				t.Fatal(err)
			}
			if advice.Diagnosis != tt.expectedDiagnosis {
				t.Errorf("diagnosis = %q, want %q", advice.Diagnosis, tt.expectedDiagnosis)
			}
			if strings.Join(advice.Symptoms, ",") != strings.Join(tt.expectedSymptoms, ",") {
				t.Errorf("symptoms = %v, want %v", advice.Symptoms, tt.expectedSymptoms)
			}
			if advice.Report == "" {
				t.Error("report should not be empty")
			}
		})
	}
}

func TestChatSessionLifecycle(t *testing.T) {
	h, store := newTestHandler(chat.Options{})

	rr := httptest.NewRecorder()
	h.OpenSession(rr, httptest.NewRequest(http.MethodPost, "/chat/sessions", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	opened := decodeSession(t, rr)
	if len(opened.Messages) != 1 || opened.Messages[0].Text != chat.Greeting {
		t.Fatalf("new session should hold only the greeting: %+v", opened.Messages)
	}

	req := httptest.NewRequest(http.MethodPost, "/chat/sessions/x/messages", strings.NewReader(`{"message": "bad cough and sore throat"}`))
	rr = httptest.NewRecorder()
	h.SendMessage(rr, withURLParam(req, "id", opened.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	sent := decodeSession(t, rr)
	if sent.Reply == nil || sent.Reply.Sender != chat.SenderBot {
		t.Fatalf("expected a bot reply, got %+v", sent.Reply)
	}
	if !strings.Contains(sent.Reply.Text, "Possible condition: Throat Infection") {
		t.Errorf("reply should name the condition:\n%s", sent.Reply.Text)
	}
	if !strings.Contains(sent.Transcript, "\nYou (") {
		t.Errorf("transcript should label the user's message:\n%s", sent.Transcript)
	}

	rr = httptest.NewRecorder()
	h.GetSession(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/chat/sessions/x", nil), "id", opened.ID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := decodeSession(t, rr); len(got.Messages) != 3 {
		t.Errorf("expected 3 messages, got %d", len(got.Messages))
	}

	rr = httptest.NewRecorder()
	h.CloseSession(rr, withURLParam(httptest.NewRequest(http.MethodDelete, "/chat/sessions/x", nil), "id", opened.ID))
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}
	if store.Count() != 0 {
		t.Errorf("session should be gone, %d left", store.Count())
	}

	rr = httptest.NewRecorder()
	h.GetSession(rr, withURLParam(httptest.NewRequest(http.MethodGet, "/chat/sessions/x", nil), "id", opened.ID))
	if rr.Code != http.StatusNotFound {
		t.Errorf("closed session should be 404, got %d", rr.Code)
	}
}

func TestSendMessagePendingReply(t *testing.T) {
	h, store := newTestHandler(chat.Options{ReplyDelay: time.Hour})
	defer store.Shutdown()

	session, err := store.Open()
	if err != nil {
		t.Fatal(err)
	}
	id := session.ID.String()

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/chat/sessions/x/messages", strings.NewReader(body))
		rr := httptest.NewRecorder()
		h.SendMessage(rr, withURLParam(req, "id", id))
		return rr
	}

	rr := send(`{"message": "fever"}`)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rr.Code)
	}
	resp := decodeSession(t, rr)
	if !resp.Pending || resp.Reply != nil {
		t.Errorf("pending response should have no reply: %+v", resp)
	}
	if last := resp.Messages[len(resp.Messages)-1]; last.Text != chat.ThinkingText {
		t.Errorf("last message = %q, want the thinking placeholder", last.Text)
	}

	if rr := send(`{"message": "cough"}`); rr.Code != http.StatusConflict {
		t.Errorf("second send while pending should be 409, got %d", rr.Code)
	}
}

func TestSendMessageErrors(t *testing.T) {
	h, store := newTestHandler(chat.Options{})
	session, err := store.Open()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name         string
		id           string
		body         string
		expectedCode int
	}{
		{"invalid session id", "not-a-uuid", `{"message": "fever"}`, http.StatusBadRequest},
		{"unknown session", "8b1c8c5e-4f5e-4a53-9a57-0f7f0b8a6f11", `{"message": "fever"}`, http.StatusNotFound},
		{"invalid json", session.ID.String(), `{"message":`, http.StatusBadRequest},
		{"empty message", session.ID.String(), `{"message": "   "}`, http.StatusBadRequest},
		{"too long", session.ID.String(), `{"message": "` + strings.Repeat("ab", 300) + `"}`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/chat/sessions/x/messages", strings.NewReader(tt.body))
			rr := httptest.NewRecorder()
			h.SendMessage(rr, withURLParam(req, "id", tt.id))

			if rr.Code != tt.expectedCode {
				t.Errorf("expected %d, got %d: %s", tt.expectedCode, rr.Code, rr.Body.String())
			}
		})
	}
}

func TestSendMessageAcceptsFreeText(t *testing.T) {
	h, store := newTestHandler(chat.Options{})

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{"long character run", "headache" + strings.Repeat("e", 30), "HEADACHE:"},
		{"template-like text", "${x} and a cough", "COUGH:"},
		{"gibberish", "{{ }} $(", symptoms.DefaultChatResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			session, err := store.Open()
			if err != nil {
				t.Fatal(err)
			}
			body, _ := json.Marshal(MessageRequest{Message: tt.message})
			req := httptest.NewRequest(http.MethodPost, "/chat/sessions/x/messages", bytes.NewReader(body))
			rr := httptest.NewRecorder()
			h.SendMessage(rr, withURLParam(req, "id", session.ID.String()))

			if rr.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
			}
			resp := decodeSession(t, rr)
			if resp.Reply == nil || !strings.Contains(resp.Reply.Text, tt.want) {
				t.Errorf("reply should contain %q, got %+v", tt.want, resp.Reply)
			}
		})
	}
}

func TestOpenSessionAtCapacity(t *testing.T) {
	h, _ := newTestHandler(chat.Options{MaxSessions: 1})

	rr := httptest.NewRecorder()
	h.OpenSession(rr, httptest.NewRequest(http.MethodPost, "/chat/sessions", nil))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.OpenSession(rr, httptest.NewRequest(http.MethodPost, "/chat/sessions", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("expected a Retry-After header")
	}
}

func TestHealthCheckHandler(t *testing.T) {
	tests := []struct {
		name   string
		status string
		code   int
	}{
		{"healthy", "healthy", http.StatusOK},
		{"degraded", "degraded", http.StatusServiceUnavailable},
		{"unhealthy", "unhealthy", http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			health := &MockHealthChecker{
				status: tt.status,
				code:   tt.code,
				details: map[string]any{
					"uptime":         "5s",
					"uptime_seconds": int64(5),
					"data":           map[string]any{"symptoms": 5},
					"system":         map[string]any{"goroutines": 3},
				},
			}
			h := NewHTTPHandler(symptoms.Default(), chat.NewStore(nil, chat.Options{}), validation.NewDataValidator(500), health)

			rr := httptest.NewRecorder()
			h.HealthCheck(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rr.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rr.Code)
			}
			var resp HealthResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Status != tt.status || resp.Uptime != "5s" || resp.UptimeSeconds != 5 {
				t.Errorf("unexpected health response: %+v", resp)
			}
			if resp.Data["symptoms"] != float64(5) {
				t.Errorf("data section not forwarded: %v", resp.Data)
			}
		})
	}
}

func TestChatResponder(t *testing.T) {
	respond := ChatResponder(symptoms.Default())

	if got := respond("I feel great"); !strings.HasPrefix(got, symptoms.DefaultChatResponse) {
		t.Errorf("unrecognized message should get the default reply, got:\n%s", got)
	}

	got := respond("headache and fever since yesterday")
	if !strings.Contains(got, "Possible condition: Viral Fever") {
		t.Errorf("reply should name Viral Fever:\n%s", got)
	}
	if !strings.HasSuffix(got, symptoms.Disclaimer) {
		t.Error("reply should end with the disclaimer")
	}
}
