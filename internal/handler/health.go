package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

var errConnClosed = errors.New("connection closed")

type HealthHandler struct {
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	amqpConn    *amqp.Connection
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{dbPool: dbPool, redisClient: redisClient, amqpConn: amqpConn}
}

func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readyz probes every backing store; one failure flips the whole answer to
// 503 but the per-dependency fields still report individually.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	probes := []struct {
		name  string
		check func() error
	}{
		{"postgres", func() error { return h.dbPool.Ping(ctx) }},
		{"redis", func() error { return h.redisClient.Ping(ctx).Err() }},
		{"rabbitmq", func() error {
			if h.amqpConn.IsClosed() {
				return errConnClosed
			}
			return nil
		}},
	}

	resp := gin.H{"status": "ok"}
	code := http.StatusOK
	for _, p := range probes {
		if err := p.check(); err != nil {
			resp[p.name] = "unavailable"
			resp["status"] = "error"
			code = http.StatusServiceUnavailable
			continue
		}
		resp[p.name] = "connected"
	}

	c.JSON(code, resp)
}
