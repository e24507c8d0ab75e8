package server

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"pixelwerk.nl/backoffice/internal/common"
)

// Pool is the part of *pgxpool.Pool the debug endpoint reads.
type Pool interface {
	Ping(ctx context.Context) error
	Stat() *pgxpool.Stat
}

type debugInfo struct {
	Env        string    `json:"env"`
	GoVersion  string    `json:"go_version"`
	StartedAt  time.Time `json:"started_at"`
	Uptime     string    `json:"uptime"`
	Goroutines int       `json:"goroutines"`
	HeapMB     float64   `json:"heap_mb"`
	Database   dbInfo    `json:"database"`
}

type dbInfo struct {
	OK           bool   `json:"ok"`
	Error        string `json:"error,omitempty"`
	PingMS       int64  `json:"ping_ms"`
	TotalConns   int32  `json:"total_conns"`
	IdleConns    int32  `json:"idle_conns"`
	AcquireCount int64  `json:"acquire_count"`
}

// DebugHandler reports runtime and database diagnostics for
// GET /api/debug. pool may be nil.
func DebugHandler(env string, pool Pool, startedAt time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		info := debugInfo{
			Env:        env,
			GoVersion:  runtime.Version(),
			StartedAt:  startedAt,
			Uptime:     time.Since(startedAt).Round(time.Second).String(),
			Goroutines: runtime.NumGoroutine(),
			HeapMB:     float64(m.HeapAlloc) / (1 << 20),
		}

		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			start := time.Now()
			if err := pool.Ping(ctx); err != nil {
				info.Database.Error = err.Error()
			} else {
				info.Database.OK = true
			}
			info.Database.PingMS = time.Since(start).Milliseconds()
			if st := pool.Stat(); st != nil {
				info.Database.TotalConns = st.TotalConns()
				info.Database.IdleConns = st.IdleConns()
				info.Database.AcquireCount = st.AcquireCount()
			}
		}

		common.WriteJSON(w, http.StatusOK, info)
	}
}
