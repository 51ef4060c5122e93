package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/vaxtrack/internal/application/dto"
	"github.com/tu-usuario/vaxtrack/internal/application/notify"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
)

// NotifyHandler expone la corrida manual de los motores de avisos (protegido,
// solo nivel nacional). La corrida periódica vive en el scheduler.
type NotifyHandler struct {
	engines map[string]*notify.Engine
}

// NewNotifyHandler construye el handler indexando los motores por nombre.
func NewNotifyHandler(engines ...*notify.Engine) *NotifyHandler {
	byName := make(map[string]*notify.Engine, len(engines))
	for _, e := range engines {
		byName[e.Name()] = e
	}
	return &NotifyHandler{engines: byName}
}

// RunCheck godoc
// @Summary      Correr un motor de avisos a demanda
// @Description  Idempotente: los avisos ya entregados para el mismo umbral no
//
//	se repiten aunque la corrida se lance varias veces.
//
// @Tags         notifications
// @Security     Bearer
// @Produce      json
// @Param        engine  path  string  true  "Nombre del motor (stock-expiration | appointment-reminder)"
// @Success      200  {object}  dto.RunCheckResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/notifications/{engine}/run [post]
func (h *NotifyHandler) RunCheck(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	if acting.Tier != entity.TierNational {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo el nivel nacional puede lanzar corridas manuales"})
	}
	engine, found := h.engines[c.Params("engine")]
	if !found {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "motor de avisos desconocido"})
	}
	summary, err := engine.RunThresholdCheck(c.Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto.RunCheckResponse{
		Engine:            engine.Name(),
		NotificationsSent: summary.NotificationsSent,
		Skipped:           summary.Skipped,
		Errors:            summary.Errors,
	})
}
