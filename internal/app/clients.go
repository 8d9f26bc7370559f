package app

import (
	"fmt"
	"strings"

	"github.com/yungbote/studentpulse-backend/internal/platform/logger"
	"github.com/yungbote/studentpulse-backend/internal/realtime/bus"
)

type Clients struct {
	// SSEBus is nil when REDIS_ADDR is unset; the hub then stays local.
	SSEBus bus.Bus
}

func wireClients(log *logger.Logger, cfg Config) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var b bus.Bus
	if strings.TrimSpace(cfg.Redis.Addr) != "" {
		rb, err := bus.NewRedisBus(cfg.Redis, log)
		if err != nil {
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		b = rb
	}
	return Clients{SSEBus: b}, nil
}

func (c *Clients) Close() {
	if c == nil {
		return
	}
	if c.SSEBus != nil {
		_ = c.SSEBus.Close()
	}
}
