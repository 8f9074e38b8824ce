package server

import (
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/MathematicalSoftware/AdEvaluator/internal/database"
)

// SystemHandlers handles system-wide monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	startupTime time.Time
	settingsDB  *database.DB
	historyDB   *database.DB
}

// NewSystemHandlers creates the system handlers
func NewSystemHandlers(settingsDB, historyDB *database.DB, log zerolog.Logger) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		startupTime: time.Now(),
		settingsDB:  settingsDB,
		historyDB:   historyDB,
	}
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.HandleHealth)
}

type healthResponse struct {
	Status        string            `json:"status"`
	UptimeSeconds float64           `json:"uptime_seconds"`
	Goroutines    int               `json:"goroutines"`
	MemoryUsedPct float64           `json:"memory_used_pct"`
	CPUUsedPct    float64           `json:"cpu_used_pct"`
	Databases     map[string]string `json:"databases"`
}

// HandleHealth reports process and database health.
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:        "ok",
		UptimeSeconds: time.Since(h.startupTime).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		Databases:     map[string]string{},
	}

	if vm, err := mem.VirtualMemory(); err == nil {
		resp.MemoryUsedPct = vm.UsedPercent
	}
	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		resp.CPUUsedPct = percentages[0]
	}

	for name, db := range map[string]*database.DB{"settings": h.settingsDB, "history": h.historyDB} {
		if db == nil {
			continue
		}
		if err := db.QuickCheck(r.Context()); err != nil {
			resp.Databases[name] = "unreachable"
			resp.Status = "degraded"
		} else {
			resp.Databases[name] = "ok"
		}
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}
