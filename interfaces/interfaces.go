// Package interfaces defines the contracts shared between the medbot core,
// the chat front-end and the HTTP layer, so each side can be tested with mocks.
package interfaces

import (
	"net/http"
	"time"

	"github.com/giygas/medbot/chat"
	"github.com/giygas/medbot/symptoms"
	"github.com/google/uuid"
)

// CatalogQualityReport summarizes issues in the symptom catalog and rule table
// that do not prevent startup.
type CatalogQualityReport struct {
	MaskedRules           []string // labels of rules an earlier rule always shadows
	UnreferencedSymptoms  []string // catalog keys no rule mentions
	MedicinesWithoutWarns []string // "symptom/medicine" pairs with an empty warning
}

// Advisor is the symptom lookup core
type Advisor interface {
	Identify(inputs []string) []string
	Diagnose(matched []string) string
	Format(matched []string) string
	FormatChat(matched []string) string
	Advise(inputs []string) symptoms.Advice
	Symptoms() []symptoms.Symptom
	Rules() []symptoms.Rule
	Lookup(key string) (symptoms.Symptom, bool)
}

// ChatStore keeps in-memory chat sessions
type ChatStore interface {
	Open() (chat.Session, error)
	Get(id uuid.UUID) (chat.Session, error)
	Send(id uuid.UUID, text string) (chat.Session, error)
	Transcript(id uuid.UUID) (string, error)
	Close(id uuid.UUID) error
	Sweep(ttl time.Duration) int
	Count() int
	Capacity() int
}

// Scheduler runs background maintenance jobs
type Scheduler interface {
	Start() error
	Stop()
}

// HTTPHandler defines the contract for the HTTP endpoints
type HTTPHandler interface {
	ListSymptoms(w http.ResponseWriter, r *http.Request)
	GetSymptom(w http.ResponseWriter, r *http.Request)
	Diagnose(w http.ResponseWriter, r *http.Request)
	OpenSession(w http.ResponseWriter, r *http.Request)
	GetSession(w http.ResponseWriter, r *http.Request)
	SendMessage(w http.ResponseWriter, r *http.Request)
	CloseSession(w http.ResponseWriter, r *http.Request)
	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker reports service health
type HealthChecker interface {
	// HealthCheck returns the status label, details and the HTTP code to answer with
	HealthCheck() (status string, details map[string]any, httpStatus int)
}

// Validator checks the static tables and user input
type Validator interface {
	ValidateCatalog(catalog []symptoms.Symptom, rules []symptoms.Rule) error
	ReportCatalogQuality(catalog []symptoms.Symptom, rules []symptoms.Rule) *CatalogQualityReport
	ValidateInput(input string) error
	ValidateMessage(input string) error
	ValidateInputs(inputs []string) error
	ValidateSessionID(input string) (uuid.UUID, error)
}
