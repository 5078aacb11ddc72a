package http

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/jhoicas/okr-api/internal/application/dto"
	"github.com/jhoicas/okr-api/internal/application/onboarding"
	"github.com/jhoicas/okr-api/internal/application/validation"
)

// OnboardingHandler maneja la sesión del asistente y la validación de sus pasos.
type OnboardingHandler struct {
	uc       *onboarding.UseCase
	svc      *validation.Service
	validate *validator.Validate
	log      zerolog.Logger
}

// NewOnboardingHandler construye el handler.
func NewOnboardingHandler(uc *onboarding.UseCase, svc *validation.Service, log zerolog.Logger) *OnboardingHandler {
	return &OnboardingHandler{uc: uc, svc: svc, validate: svc.Validator(), log: log}
}

// StartSession godoc
// @Summary      Iniciar o retomar la sesión de onboarding
// @Tags         onboarding
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      409  {object}  dto.Envelope
// @Router       /api/onboarding/session [post]
func (h *OnboardingHandler) StartSession(c *fiber.Ctx) error {
	out, err := h.uc.Start(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// GetSession godoc
// @Summary      Sesión de onboarding actual con el progreso por paso
// @Tags         onboarding
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Failure      404  {object}  dto.Envelope
// @Failure      409  {object}  dto.Envelope  "sesión expirada"
// @Router       /api/onboarding/session [get]
func (h *OnboardingHandler) GetSession(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// SaveStep godoc
// @Summary      Guardar (o saltar) un paso del asistente
// @Tags         onboarding
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        step  path  int                  true  "Paso 1–5"
// @Param        body  body  dto.SaveStepRequest  true  "data y skip"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/onboarding/steps/{step} [post]
func (h *OnboardingHandler) SaveStep(c *fiber.Ctx) error {
	step, err := c.ParamsInt("step")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, CodeValidation, "step debe ser un número entre 1 y 5", nil)
	}
	var in dto.SaveStepRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	out, err := h.uc.SaveStep(c.UserContext(), GetUserID(c), step, in.Data, in.Skip)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Preview godoc
// @Summary      Vista previa de los datos transformados (sin guardar)
// @Tags         onboarding
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.Envelope
// @Router       /api/onboarding/preview [post]
func (h *OnboardingHandler) Preview(c *fiber.Ctx) error {
	out, err := h.uc.Preview(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// Complete godoc
// @Summary      Completar el onboarding: transformación estricta y guardado transaccional
// @Tags         onboarding
// @Security     Bearer
// @Produce      json
// @Success      201  {object}  dto.Envelope
// @Failure      400  {object}  dto.Envelope
// @Failure      409  {object}  dto.Envelope
// @Router       /api/onboarding/complete [post]
func (h *OnboardingHandler) Complete(c *fiber.Ctx) error {
	out, err := h.uc.Complete(c.UserContext(), GetUserID(c))
	if err != nil {
		return respondError(c, h.log, err)
	}
	return created(c, out, "onboarding completado")
}

// ValidateStep godoc
// @Summary      Validar los datos de un paso
// @Description  Esquema, reglas de negocio y, con FEATURE_AI_VALIDATION, sugerencias de IA.
// @Tags         onboarding
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateStepRequest  true  "step y data"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Failure      429   {object}  dto.Envelope
// @Router       /api/onboarding/validate [post]
func (h *OnboardingHandler) ValidateStep(c *fiber.Ctx) error {
	var in dto.ValidateStepRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.svc.ValidateStep(c.UserContext(), in.Step, in.Data)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// ValidateField godoc
// @Summary      Validar un campo para feedback en vivo
// @Tags         onboarding
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ValidateFieldRequest  true  "step, field, value"
// @Success      200   {object}  dto.Envelope
// @Failure      400   {object}  dto.Envelope
// @Router       /api/onboarding/validate/field [post]
func (h *OnboardingHandler) ValidateField(c *fiber.Ctx) error {
	var in dto.ValidateFieldRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	out, err := h.svc.ValidateField(c.UserContext(), in.Step, in.Field, in.Value, in.StepData)
	if err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, out)
}

// ValidateCrossStep godoc
// @Summary      Heurísticas de consistencia entre pasos
// @Tags         onboarding
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CrossStepRequest  true  "formData"
// @Success      200   {object}  dto.Envelope
// @Router       /api/onboarding/validate/cross-step [post]
func (h *OnboardingHandler) ValidateCrossStep(c *fiber.Ctx) error {
	var in dto.CrossStepRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := validation.Struct(h.validate, &in); err != nil {
		return respondError(c, h.log, err)
	}
	return ok(c, h.svc.ValidateCrossStep(in.FormData))
}
