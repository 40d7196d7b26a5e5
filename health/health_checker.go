// Package health reports whether the symptom tables are usable and the chat
// front-end has room for new sessions.
package health

import (
	"fmt"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/giygas/medbot/interfaces"
)

// degradedSessionRatio is the share of the session cap that marks the chat as degraded
const degradedSessionRatio = 0.9

// HealthCheckerImpl implements interfaces.HealthChecker
type HealthCheckerImpl struct {
	advisor   interfaces.Advisor
	validator interfaces.Validator
	chats     interfaces.ChatStore
	startTime time.Time
}

// NewHealthChecker creates a health checker with injected dependencies
func NewHealthChecker(advisor interfaces.Advisor, validator interfaces.Validator, chats interfaces.ChatStore, startTime time.Time) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		advisor:   advisor,
		validator: validator,
		chats:     chats,
		startTime: startTime,
	}
}

// HealthCheck returns the status, details and HTTP code for /health
func (h *HealthCheckerImpl) HealthCheck() (status string, details map[string]any, httpStatus int) {
	catalog := h.advisor.Symptoms()
	rules := h.advisor.Rules()
	active := h.chats.Count()
	capacity := h.chats.Capacity()

	catalogErr := h.validator.ValidateCatalog(catalog, rules)

	switch {
	case catalogErr != nil:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	case capacity > 0 && float64(active) >= float64(capacity)*degradedSessionRatio:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data := map[string]any{
		"symptoms":         len(catalog),
		"rules":            len(rules),
		"active_sessions":  active,
		"session_capacity": capacity,
	}
	if catalogErr != nil {
		data["catalog_error"] = catalogErr.Error()
	}

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	uptime := time.Since(h.startTime)
	details = map[string]any{
		"uptime":         formatUptimeHuman(uptime),
		"uptime_seconds": int64(uptime.Seconds()),
		"data":           data,
		"system": map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb": int(m.Alloc / 1024 / 1024),
				"sys_mb":   int(m.Sys / 1024 / 1024),
				"num_gc":   m.NumGC,
			},
		},
	}

	return status, details, httpStatus
}

// formatUptimeHuman formats a duration like "1d 2h 3m 4s"
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}
