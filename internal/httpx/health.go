package httpx

import (
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	DB    *pgxpool.Pool
	Redis *redis.Client
}

type healthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Services  map[string]string `json:"services"`
}

func (h *HealthHandler) check(w http.ResponseWriter, r *http.Request) {
	dbStatus := "ok"
	if err := h.DB.Ping(r.Context()); err != nil {
		dbStatus = "error"
	}
	cacheStatus := "ok"
	if err := h.Redis.Ping(r.Context()).Err(); err != nil {
		cacheStatus = "error"
	}

	resp := healthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Services:  map[string]string{"database": dbStatus, "cache": cacheStatus},
	}
	code := http.StatusOK
	if dbStatus != "ok" || cacheStatus != "ok" {
		resp.Status = "unhealthy"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}
