package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// Pinger comprueba la conexión con el almacenamiento.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler /health y /api/test-db.
type HealthHandler struct {
	store   Pinger
	driver  string
	version string
	log     zerolog.Logger
}

// NewHealthHandler construye el handler. driver es "memory" o "postgres".
func NewHealthHandler(store Pinger, driver, version string, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{store: store, driver: driver, version: version, log: log}
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok", "version": h.version})
}

// TestDB godoc
// @Summary      Probar la conexión al almacenamiento
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /api/test-db [get]
func (h *HealthHandler) TestDB(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()
	start := time.Now()
	if err := h.store.Ping(ctx); err != nil {
		h.log.Error().Err(err).Str("driver", h.driver).Msg("test-db: ping fallido")
		return fail(c, fiber.StatusInternalServerError, "DB_UNAVAILABLE", "no se pudo conectar al almacenamiento", nil)
	}
	return ok(c, fiber.Map{
		"driver":    h.driver,
		"connected": true,
		"latencyMs": time.Since(start).Milliseconds(),
	})
}
