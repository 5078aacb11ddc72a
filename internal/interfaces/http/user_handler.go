package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/validation"
)

// UserHandler administración de usuarios (gerente o superior).
type UserHandler struct {
	uc       *admin.UserUseCase
	validate *validator.Validate
	log      zerolog.Logger
}

// NewUserHandler construye el handler.
func NewUserHandler(uc *admin.UserUseCase, v *validator.Validate, log zerolog.Logger) *UserHandler {
	return &UserHandler{uc: uc, validate: v, log: log}
}

// List godoc
// @Summary      Listar usuarios
// @Description  Filtros, orden y paginación. Los no corporativos solo ven su empresa.
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        roleType   query  string  false  "corporativo|gerente|empleado"
// @Param        companyId  query  string  false  "Empresa"
// @Param        status     query  string  false  "active|inactive|suspended|deleted"
// @Param        search     query  string  false  "Email o nombre"
// @Param        sortBy     query  string  false  "createdAt|email|fullName|roleType|lastLoginAt"
// @Param        sortOrder  query  string  false  "asc|desc"
// @Param        limit      query  int     false  "1–100"  default(20)
// @Param        offset     query  int     false  "Offset" default(0)
// @Success      200  {object}  dto.Envelope
// @Failure      400  {object}  dto.Envelope
// @Failure      403  {object}  dto.Envelope
// @Router       /api/admin/users [get]
func (h *UserHandler) List(c *fiber.Ctx) error {
	var q dto.UserListQuery
	if err := c.QueryParser(&q); err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "parámetros de consulta inválidos", nil)
	}
	if err := validation.Struct(h.validate, &q); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.List(c.UserContext(), GetCaller(c), q)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Get godoc
// @Summary      Obtener usuario
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID del usuario"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /api/admin/users/{id} [get]
func (h *UserHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Update godoc
// @Summary      Actualizar usuario
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID del usuario"
// @Param        body  body  dto.UpdateUserRequest  true  "Campos a modificar"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      403   {object}  dto.Envelope
// @Failure      404   {object}  dto.Envelope
// @Router       /api/admin/users/{id} [put]
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateUserRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Update(c.UserContext(), GetCaller(c), c.Params("id"), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Batch godoc
// @Summary      Operación en lote sobre usuarios
// @Description  Cada ID se procesa de forma independiente; los fallos quedan en results.
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BatchUserRequest  true  "userIds, action, options"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/admin/users [post]
func (h *UserHandler) Batch(c *fiber.Ctx) error {
	var in dto.BatchUserRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Batch(c.UserContext(), GetCaller(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK(out, batchMessage(out.Summary)))
}

func batchMessage(s dto.BatchSummary) string {
	if s.Failed == 0 {
		return "operación completada"
	}
	if s.Successful == 0 {
		return "ningún usuario fue procesado"
	}
	return "operación completada parcialmente"
}
