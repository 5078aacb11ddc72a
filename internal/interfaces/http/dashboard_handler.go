package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/admin"
)

// DashboardHandler resumen administrativo, reporte PDF y actividad.
type DashboardHandler struct {
	uc       *admin.DashboardUseCase
	activity *admin.ActivityLog
	log      zerolog.Logger
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *admin.DashboardUseCase, activity *admin.ActivityLog, log zerolog.Logger) *DashboardHandler {
	return &DashboardHandler{uc: uc, activity: activity, log: log}
}

// Summary godoc
// @Summary      Resumen del dashboard administrativo
// @Description  Secciones consultadas en paralelo; si alguna falla se devuelven las demás con errors por sección.
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      500  {object}  dto.Envelope
// @Router       /api/admin/dashboard [get]
func (h *DashboardHandler) Summary(c *fiber.Ctx) error {
	out, err := h.uc.Summary(c.UserContext(), GetCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Report godoc
// @Summary      Reporte PDF del dashboard
// @Tags         admin
// @Security     Bearer
// @Produce      application/pdf
// @Success      200  {file}    binary
// @Failure      403  {object}  dto.Envelope
// @Router       /api/admin/dashboard/report [get]
func (h *DashboardHandler) Report(c *fiber.Ctx) error {
	pdf, err := h.uc.Report(c.UserContext(), GetCaller(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="dashboard-%s.pdf"`, c.Context().Time().Format("20060102")))
	return c.Send(pdf)
}

// Activity godoc
// @Summary      Actividad administrativa reciente
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        limit  query  int  false  "1–200"  default(50)
// @Success      200  {object}  dto.Envelope
// @Router       /api/admin/activity [get]
func (h *DashboardHandler) Activity(c *fiber.Ctx) error {
	out, err := h.activity.List(c.UserContext(), c.QueryInt("limit", 0))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}
