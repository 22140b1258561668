package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/service"
)

type HealthResponse struct {
	Status    string         `json:"status"`
	Timestamp time.Time      `json:"timestamp"`
	Service   string         `json:"service"`
	Version   string         `json:"version"`
	Pool      PoolStatus     `json:"pool"`
	Cache     CacheStatus    `json:"cache"`
	Runs      map[string]any `json:"runs"`
}

type PoolStatus struct {
	Open            int `json:"open"`
	InUse           int `json:"inUse"`
	Idle            int `json:"idle"`
	Capacity        int `json:"capacity"`
	OpenFileHandles int `json:"openFileHandles"`
}

type CacheStatus struct {
	Entries int   `json:"entries"`
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
}

type HealthController struct {
	service *service.VerificationService
}

func NewHealthController(svc *service.VerificationService) *HealthController {
	return &HealthController{
		service: svc,
	}
}

func (hc *HealthController) HealthCheck(c *gin.Context) {
	poolStats := hc.service.PoolStats()
	cacheStats := hc.service.CacheStats()

	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Service:   "dbverify",
		Version:   "1.0.0",
		Pool: PoolStatus{
			Open:            poolStats.Open,
			InUse:           poolStats.InUse,
			Idle:            poolStats.Idle,
			Capacity:        poolStats.Capacity,
			OpenFileHandles: hc.service.OpenFileHandles(),
		},
		Cache: CacheStatus{
			Entries: cacheStats.Entries,
			Hits:    cacheStats.Hits,
			Misses:  cacheStats.Misses,
		},
		Runs: hc.service.MetricsSummary(),
	}

	c.JSON(http.StatusOK, response)
}
