// Package scheduler checks the symptom tables at startup and runs the
// periodic sweep that expires idle chat sessions.
package scheduler

import (
	"fmt"
	"time"

	"github.com/giygas/medbot/interfaces"
	"github.com/giygas/medbot/logging"
	"github.com/giygas/medbot/metrics"
	"github.com/go-co-op/gocron"
)

// Compile-time check to ensure Scheduler implements the interface
var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler runs background jobs with injected dependencies
type Scheduler struct {
	advisor       interfaces.Advisor
	validator     interfaces.Validator
	chats         interfaces.ChatStore
	sessionTTL    time.Duration
	sweepInterval time.Duration
	scheduler     *gocron.Scheduler
}

// NewScheduler creates a scheduler; nothing runs until Start
func NewScheduler(advisor interfaces.Advisor, validator interfaces.Validator, chats interfaces.ChatStore, sessionTTL, sweepInterval time.Duration) *Scheduler {
	return &Scheduler{
		advisor:       advisor,
		validator:     validator,
		chats:         chats,
		sessionTTL:    sessionTTL,
		sweepInterval: sweepInterval,
		scheduler:     gocron.NewScheduler(time.Local),
	}
}

// Start validates the tables, then schedules the session sweep
func (s *Scheduler) Start() error {
	if err := s.checkCatalog(); err != nil {
		return err
	}

	_, err := s.scheduler.Every(s.sweepInterval).WaitForSchedule().Do(s.sweepSessions)
	if err != nil {
		logging.Error("Failed to schedule session sweep", "error", err)
		return fmt.Errorf("failed to schedule session sweep: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started",
		"sweep_interval", s.sweepInterval.String(),
		"session_ttl", s.sessionTTL.String())
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// checkCatalog refuses to start on a broken rule table and logs softer issues
func (s *Scheduler) checkCatalog() error {
	catalog := s.advisor.Symptoms()
	rules := s.advisor.Rules()

	if err := s.validator.ValidateCatalog(catalog, rules); err != nil {
		logging.Error("Symptom catalog failed validation", "error", err)
		return fmt.Errorf("catalog validation failed: %w", err)
	}

	report := s.validator.ReportCatalogQuality(catalog, rules)
	if len(report.MaskedRules) > 0 {
		logging.Warn("Rules masked by an earlier rule will never match",
			"count", len(report.MaskedRules),
			"rules", report.MaskedRules)
	}
	if len(report.UnreferencedSymptoms) > 0 {
		logging.Warn("Symptoms not referenced by any rule",
			"count", len(report.UnreferencedSymptoms),
			"symptoms", report.UnreferencedSymptoms)
	}
	if len(report.MedicinesWithoutWarns) > 0 {
		logging.Warn("Medicines without a warning",
			"count", len(report.MedicinesWithoutWarns),
			"medicines", report.MedicinesWithoutWarns)
	}

	logging.Info("Symptom catalog loaded", "symptoms", len(catalog), "rules", len(rules))
	return nil
}

// sweepSessions expires idle chat sessions
func (s *Scheduler) sweepSessions() {
	removed := s.chats.Sweep(s.sessionTTL)
	active := s.chats.Count()
	metrics.ChatSessionsActive.Set(float64(active))

	if removed > 0 {
		logging.Info("Expired idle chat sessions", "removed", removed, "active", active)
	} else {
		logging.Debug("Session sweep found nothing to expire", "active", active)
	}
}
