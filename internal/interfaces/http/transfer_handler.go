package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/vaxtrack/internal/application/dto"
	"github.com/tu-usuario/vaxtrack/internal/application/transfer"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
)

// TransferHandler maneja las peticiones HTTP del protocolo de traslados en
// dos fases (protegido).
type TransferHandler struct {
	uc *transfer.UseCase
}

// NewTransferHandler construye el handler.
func NewTransferHandler(uc *transfer.UseCase) *TransferHandler {
	return &TransferHandler{uc: uc}
}

// Initiate godoc
// @Summary      Iniciar un traslado (fase 1)
// @Description  Debita el origen de inmediato y deja la cantidad "en vuelo"
//
//	hasta que el destino confirme, rechace o el origen cancele.
//
// @Tags         transfers
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.InitiateTransferRequest  true  "from, to, vaccine_id, quantity"
// @Success      201   {object}  dto.TransferResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/transfers [post]
func (h *TransferHandler) Initiate(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.InitiateTransferRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	from := ownerFromDTO(in.From)
	if !canActOn(acting, from) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo el origen puede iniciar el traslado"})
	}
	tr, err := h.uc.Initiate(c.Context(), transfer.InitiateInput{
		From:      from,
		To:        ownerFromDTO(in.To),
		VaccineID: in.VaccineID,
		Quantity:  in.Quantity,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(transferToDTO(tr))
}

// Confirm godoc
// @Summary      Confirmar la recepción de un traslado (fase 2)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/confirm [post]
func (h *TransferHandler) Confirm(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	tr, err := h.uc.Confirm(c.Context(), c.Params("id"), acting, GetUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(tr))
}

// Reject godoc
// @Summary      Rechazar un traslado pendiente (destino)
// @Description  Devuelve la cantidad al origen acuñando lotes compensatorios
//
//	con el snapshot de las líneas originales.
//
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/reject [post]
func (h *TransferHandler) Reject(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	tr, err := h.uc.Reject(c.Context(), c.Params("id"), acting)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(tr))
}

// Cancel godoc
// @Summary      Cancelar un traslado pendiente (origen)
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id}/cancel [post]
func (h *TransferHandler) Cancel(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	tr, err := h.uc.Cancel(c.Context(), c.Params("id"), acting)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transferToDTO(tr))
}

// GetByID godoc
// @Summary      Consultar un traslado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del traslado"
// @Success      200  {object}  dto.TransferResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/transfers/{id} [get]
func (h *TransferHandler) GetByID(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	tr, err := h.uc.GetByID(c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	// Solo las partes del traslado (o el nivel nacional) pueden verlo.
	if !canActOn(acting, tr.From) && !canActOn(acting, tr.To) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	}
	return c.JSON(transferToDTO(tr))
}

// ListInbox godoc
// @Summary      Traslados pendientes dirigidos al dueño autenticado
// @Tags         transfers
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.TransferResponse
// @Router       /api/transfers/inbox [get]
func (h *TransferHandler) ListInbox(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	transfers, err := h.uc.ListInbox(acting)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.TransferResponse, 0, len(transfers))
	for _, tr := range transfers {
		out = append(out, transferToDTO(tr))
	}
	return c.JSON(out)
}

func transferToDTO(tr *entity.PendingStockTransfer) dto.TransferResponse {
	allocs := make([]dto.TransferAllocationDTO, 0, len(tr.Allocations))
	for _, a := range tr.Allocations {
		allocs = append(allocs, dto.TransferAllocationDTO{
			SourceLotID:        a.SourceLotID,
			Quantity:           a.Quantity,
			SnapshotExpiration: a.SnapshotExpiration,
			SnapshotStatus:     a.SnapshotStatus,
		})
	}
	return dto.TransferResponse{
		ID:          tr.ID,
		VaccineID:   tr.VaccineID,
		From:        ownerToDTO(tr.From),
		To:          ownerToDTO(tr.To),
		Quantity:    tr.Quantity,
		Status:      tr.Status,
		ConfirmedAt: tr.ConfirmedAt,
		Allocations: allocs,
		CreatedAt:   tr.CreatedAt,
	}
}
