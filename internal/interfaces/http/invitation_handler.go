package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/admin"
	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/validation"
)

// InvitationHandler gestión de invitaciones y su aceptación.
type InvitationHandler struct {
	uc       *admin.InvitationUseCase
	validate *validator.Validate
	log      zerolog.Logger
}

// NewInvitationHandler construye el handler.
func NewInvitationHandler(uc *admin.InvitationUseCase, v *validator.Validate, log zerolog.Logger) *InvitationHandler {
	return &InvitationHandler{uc: uc, validate: v, log: log}
}

// Create godoc
// @Summary      Crear invitación
// @Tags         admin
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvitationRequest  true  "email, companyId, roleType"
// @Success      201   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      403   {object}  dto.Envelope
// @Failure      409   {object}  dto.Envelope  "invitación activa o miembro existente"
// @Failure      429   {object}  dto.Envelope
// @Router       /api/admin/invitations [post]
func (h *InvitationHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvitationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Create(c.UserContext(), GetCaller(c), in)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return created(c, out, "invitación creada")
}

// List godoc
// @Summary      Listar invitaciones
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        status     query  string  false  "pending|sent|accepted|expired|cancelled"
// @Param        companyId  query  string  false  "Empresa"
// @Param        roleType   query  string  false  "Rol"
// @Param        email      query  string  false  "Email"
// @Param        limit      query  int     false  "1–100"  default(20)
// @Param        offset     query  int     false  "Offset" default(0)
// @Success      200  {object}  dto.Envelope
// @Router       /api/admin/invitations [get]
func (h *InvitationHandler) List(c *fiber.Ctx) error {
	var q dto.InvitationListQuery
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
// @Summary      Obtener invitación
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la invitación"
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Router       /api/admin/invitations/{id} [get]
func (h *InvitationHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Resend godoc
// @Summary      Reenviar invitación (nuevo código y vencimiento)
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la invitación"
// @Success      200  {object}  dto.Envelope
// @Failure      409  {object}  dto.Envelope
// @Router       /api/admin/invitations/{id}/resend [post]
func (h *InvitationHandler) Resend(c *fiber.Ctx) error {
	out, err := h.uc.Resend(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK(out, "invitación reenviada"))
}

// Cancel godoc
// @Summary      Cancelar invitación
// @Tags         admin
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la invitación"
// @Success      200  {object}  dto.Envelope
// @Failure      409  {object}  dto.Envelope
// @Router       /api/admin/invitations/{id} [delete]
func (h *InvitationHandler) Cancel(c *fiber.Ctx) error {
	out, err := h.uc.Cancel(c.UserContext(), GetCaller(c), c.Params("id"))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK(out, "invitación cancelada"))
}

// Accept godoc
// @Summary      Aceptar una invitación
// @Description  El email del usuario autenticado debe coincidir con el de la invitación.
// @Tags         invitations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AcceptInvitationRequest  true  "code"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      403   {object}  dto.Envelope
// @Router       /api/invitations/accept [post]
func (h *InvitationHandler) Accept(c *fiber.Ctx) error {
	var in dto.AcceptInvitationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.uc.Accept(c.UserContext(), GetCaller(c), in.Code)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return c.JSON(dto.OK(out, "invitación aceptada"))
}
