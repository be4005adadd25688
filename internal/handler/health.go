package handler

import (
	"context"
	"net/http"
	"time"

	"petzap/internal/infra"
	"petzap/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports DB and Redis connectivity plus the per-action webhook
// breaker states and dead-letter backlog. Only the DB and Redis decide the
// status code.
func Health(db *gorm.DB, rdb *redis.Client, breakers *infra.WebhookBreakers) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "connected"
		sqlDB, err := db.DB()
		if err != nil || sqlDB.PingContext(ctx) != nil {
			dbStatus = "error"
		}

		redisStatus := "disabled"
		var dlq int64
		if rdb != nil {
			redisStatus = "connected"
			if rdb.Ping(ctx).Err() != nil {
				redisStatus = "error"
			} else {
				dlq, _ = worker.DLQLength(ctx, rdb, worker.QueueWebhook)
			}
		}

		var webhook interface{} = "unknown"
		if breakers != nil {
			webhook = breakers.States()
		}

		status := http.StatusOK
		if dbStatus != "connected" || redisStatus == "error" {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{
			"ok":               status == http.StatusOK,
			"db":               dbStatus,
			"redis":            redisStatus,
			"webhook_breakers": webhook,
			"webhook_dlq":      dlq,
		})
	}
}
