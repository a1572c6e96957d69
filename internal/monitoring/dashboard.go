// file: internal/monitoring/dashboard.go
package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"scholarhub/internal/response"
	"scholarhub/internal/services"

	"go.uber.org/zap"
)

// HealthChecker probes the service dependencies.
type HealthChecker interface {
	HealthCheck(ctx context.Context) (*services.ServiceHealth, error)
}

// ConnectionCounter reports open realtime connections.
type ConnectionCounter interface {
	ClientCount() int
}

// criticalDependencies make the whole service unhealthy when down. Any
// other failing dependency only degrades it.
var criticalDependencies = map[string]bool{"database": true}

// Dashboard aggregates dependency health and process statistics
type Dashboard struct {
	checker     HealthChecker
	realtime    ConnectionCounter
	builder     *response.Builder
	logger      *zap.Logger
	version     string
	environment string
	startTime   time.Time
	timeout     time.Duration
}

// NewDashboard creates a new monitoring dashboard. realtime may be nil.
func NewDashboard(checker HealthChecker, realtime ConnectionCounter, builder *response.Builder, logger *zap.Logger, version, environment string) *Dashboard {
	return &Dashboard{
		checker:     checker,
		realtime:    realtime,
		builder:     builder,
		logger:      logger,
		version:     version,
		environment: environment,
		startTime:   time.Now(),
		timeout:     5 * time.Second,
	}
}

// ResourceHealth is a snapshot of the Go runtime.
type ResourceHealth struct {
	Goroutines   int    `json:"goroutines"`
	HeapAlloc    uint64 `json:"heap_alloc_bytes"`
	HeapSys      uint64 `json:"heap_sys_bytes"`
	NumGC        uint32 `json:"num_gc"`
	RealtimeConn int    `json:"realtime_connections"`
}

// SystemHealth is the detailed health view for operators.
type SystemHealth struct {
	response.HealthStatus
	Issues    []string       `json:"issues,omitempty"`
	Resources ResourceHealth `json:"resources"`
}

// GetSystemHealth runs every dependency probe and classifies the result.
func (d *Dashboard) GetSystemHealth(ctx context.Context) *SystemHealth {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	out := &SystemHealth{
		HealthStatus: response.HealthStatus{
			Status:      "healthy",
			Timestamp:   time.Now().Unix(),
			Version:     d.version,
			Environment: d.environment,
			Uptime:      time.Since(d.startTime).Seconds(),
			Services:    make(map[string]interface{}),
		},
		Resources: d.resources(),
	}

	health, err := d.checker.HealthCheck(ctx)
	if err != nil {
		d.logger.Error("Health check failed", zap.Error(err))
		out.Status = "unhealthy"
		out.Issues = []string{err.Error()}
		return out
	}

	names := make([]string, 0, len(health.Dependencies))
	for name := range health.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		dep := health.Dependencies[name]
		out.Services[name] = dep
		if dep.Status == "healthy" {
			continue
		}
		out.Issues = append(out.Issues, name+": "+dep.Error)
		if criticalDependencies[name] {
			out.Status = "unhealthy"
		} else if out.Status == "healthy" {
			out.Status = "degraded"
		}
	}
	return out
}

func (d *Dashboard) resources() ResourceHealth {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	res := ResourceHealth{
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  mem.HeapAlloc,
		HeapSys:    mem.HeapSys,
		NumGC:      mem.NumGC,
	}
	if d.realtime != nil {
		res.RealtimeConn = d.realtime.ClientCount()
	}
	return res
}

// HealthHandler serves the public liveness summary - GET /health
func (d *Dashboard) HealthHandler(w http.ResponseWriter, r *http.Request) {
	health := d.GetSystemHealth(r.Context())
	summary := health.HealthStatus
	summary.Services = nil
	d.builder.WriteHealthCheck(w, r, &summary)
}

// DetailsHandler serves per-dependency detail - GET /health/details
func (d *Dashboard) DetailsHandler(w http.ResponseWriter, r *http.Request) {
	health := d.GetSystemHealth(r.Context())
	code := http.StatusOK
	if health.Status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	d.builder.WriteJSON(w, r, d.builder.Success(r.Context(), health), code)
}
