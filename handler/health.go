package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/mstgnz/thaipay/infra/response"
	"github.com/mstgnz/thaipay/model"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ProviderCatalog lists the providers with a registered adapter.
type ProviderCatalog interface {
	Types() []model.ProviderType
}

// HealthHandler handles health check requests
type HealthHandler struct {
	storage     Pinger
	providers   ProviderCatalog
	environment string
	version     string
	startTime   time.Time
}

// HealthStatus represents overall system health
type HealthStatus struct {
	Status      string               `json:"status"`
	Version     string               `json:"version"`
	Timestamp   time.Time            `json:"timestamp"`
	Uptime      string               `json:"uptime"`
	Environment string               `json:"environment"`
	Storage     *ServiceHealth       `json:"storage"`
	Providers   []model.ProviderType `json:"providers"`
	GoRoutines  int                  `json:"goroutines"`
	MemoryAlloc string               `json:"memoryAlloc"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status       string `json:"status"`
	Healthy      bool   `json:"healthy"`
	ResponseTime string `json:"responseTime,omitempty"`
	Error        string `json:"error,omitempty"`
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(storage Pinger, providers ProviderCatalog, environment, version string) *HealthHandler {
	return &HealthHandler{
		storage:     storage,
		providers:   providers,
		environment: environment,
		version:     version,
		startTime:   time.Now(),
	}
}

// CheckHealth handles GET /health
func (h *HealthHandler) CheckHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	health := &HealthStatus{
		Version:     h.version,
		Timestamp:   time.Now().UTC(),
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Environment: h.environment,
		Storage:     h.checkStorage(ctx),
		GoRoutines:  runtime.NumGoroutine(),
		MemoryAlloc: formatBytes(mem.Alloc),
	}
	if h.providers != nil {
		health.Providers = h.providers.Types()
	}

	health.Status = "healthy"
	statusCode := http.StatusOK
	switch {
	case !health.Storage.Healthy:
		health.Status = "unhealthy"
		statusCode = http.StatusServiceUnavailable
	case len(health.Providers) == 0:
		// Webhooks still apply without adapters, but no payment can be requested.
		health.Status = "degraded"
	}

	_ = response.WriteJSON(w, statusCode, response.Response{
		Code:    statusCode,
		Success: health.Status != "unhealthy",
		Message: fmt.Sprintf("Service is %s", health.Status),
		Data:    health,
	})
}

func (h *HealthHandler) checkStorage(ctx context.Context) *ServiceHealth {
	if h.storage == nil {
		return &ServiceHealth{Status: "not_configured", Error: "storage not configured"}
	}

	start := time.Now()
	if err := h.storage.Ping(ctx); err != nil {
		return &ServiceHealth{
			Status:       "unhealthy",
			ResponseTime: time.Since(start).String(),
			Error:        err.Error(),
		}
	}

	elapsed := time.Since(start)
	status := "healthy"
	if elapsed > time.Second {
		status = "degraded"
	}
	return &ServiceHealth{Status: status, Healthy: true, ResponseTime: elapsed.String()}
}

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
