package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/vaxtrack/internal/application/dto"
	"github.com/tu-usuario/vaxtrack/internal/application/ledger"
	"github.com/tu-usuario/vaxtrack/internal/domain"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
)

// StockHandler maneja las peticiones HTTP del libro de lotes (protegido).
type StockHandler struct {
	ledgerUC *ledger.UseCase
}

// NewStockHandler construye el handler.
func NewStockHandler(ledgerUC *ledger.UseCase) *StockHandler {
	return &StockHandler{ledgerUC: ledgerUC}
}

// CreateLot godoc
// @Summary      Ingresar un lote de vacunas
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateLotRequest  true  "vaccine_id, owner, quantity, expiration"
// @Success      201   {object}  dto.LotResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/stock/lots [post]
func (h *StockHandler) CreateLot(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.CreateLotRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	owner := ownerFromDTO(in.Owner)
	if !canActOn(acting, owner) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no puede operar sobre ese dueño de stock"})
	}
	lot, err := h.ledgerUC.CreateLot(c.Context(), ledger.CreateLotInput{
		VaccineID:  in.VaccineID,
		Owner:      owner,
		Quantity:   in.Quantity,
		Expiration: in.Expiration,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(lotToDTO(lot))
}

// Consume godoc
// @Summary      Consumir dosis (aplicación, descarte)
// @Description  Drena lotes del dueño indicado de vencimiento más próximo primero.
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ConsumeRequest  true  "vaccine_id, owner, quantity"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/stock/consume [post]
func (h *StockHandler) Consume(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	var in dto.ConsumeRequest
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
	}
	owner := ownerFromDTO(in.Owner)
	if !canActOn(acting, owner) {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no puede operar sobre ese dueño de stock"})
	}
	consumed, err := h.ledgerUC.ConsumeLots(c.Context(), in.VaccineID, owner, in.Quantity)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.ConsumedLotDTO, 0, len(consumed))
	for _, cl := range consumed {
		out = append(out, dto.ConsumedLotDTO{LotID: cl.LotID, QuantityTaken: cl.QuantityTaken})
	}
	return c.JSON(fiber.Map{"consumed": out})
}

// DeleteLot godoc
// @Summary      Eliminar un lote y todo su linaje
// @Description  Borra el lote y los lotes derivados por traslados, descontando
//
//	los agregados de cada dueño afectado en una sola transacción.
//
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        id  path  string  true  "ID del lote raíz"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/lots/{id} [delete]
func (h *StockHandler) DeleteLot(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	// El borrado en cascada cruza dueños de varios niveles; solo el nivel nacional puede ejecutarlo.
	if acting.Tier != entity.TierNational {
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "solo el nivel nacional puede eliminar lotes en cascada"})
	}
	lotID := c.Params("id")
	deleted, err := h.ledgerUC.DeleteLotCascade(c.Context(), lotID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"deleted_lot_ids": deleted})
}

// ListStock godoc
// @Summary      Stock agregado por vacuna del dueño autenticado
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        owner_tier  query  string  false  "Ver otro dueño (solo nivel nacional)"
// @Param        owner_id    query  string  false  "ID del dueño a consultar"
// @Success      200  {array}   dto.AggregateStockDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Router       /api/stock [get]
func (h *StockHandler) ListStock(c *fiber.Ctx) error {
	acting, ok := GetActingOwner(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
	}
	owner := acting
	if tier := c.Query("owner_tier"); tier != "" {
		owner = entity.Owner{Tier: entity.OwnerTier(tier), ID: c.Query("owner_id")}
		if !owner.Valid() {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "dueño de stock inválido"})
		}
		if !canActOn(acting, owner) {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "no puede consultar ese dueño de stock"})
		}
	}
	lines, err := h.ledgerUC.ListStock(owner)
	if err != nil {
		return respondError(c, err)
	}
	out := make([]dto.AggregateStockDTO, 0, len(lines))
	for _, l := range lines {
		out = append(out, dto.AggregateStockDTO{
			VaccineID:         l.VaccineID,
			Owner:             ownerToDTO(l.Owner),
			Quantity:          l.Quantity,
			NearestExpiration: l.NearestExpiration,
			HasExpiredLot:     l.HasExpiredLot,
		})
	}
	return c.JSON(out)
}

// canActOn decide si el actor puede operar sobre el dueño indicado: sobre sí
// mismo siempre, y el nivel nacional sobre cualquiera.
func canActOn(acting, target entity.Owner) bool {
	return acting.Equal(target) || acting.Tier == entity.TierNational
}

// respondError mapea los errores sentinela del dominio a códigos HTTP.
func respondError(c *fiber.Ctx, err error) error {
	switch err {
	case domain.ErrInvalidInput:
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "datos inválidos"})
	case domain.ErrNotFound:
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: "recurso no encontrado"})
	case domain.ErrForbidden:
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: "acceso denegado al recurso"})
	case domain.ErrConflict:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: "el recurso ya no está en un estado que permita la operación"})
	case domain.ErrInsufficientStock:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "INSUFFICIENT_STOCK", Message: "stock insuficiente"})
	case domain.ErrDuplicate:
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: "el recurso ya existe"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()})
	}
}

func ownerFromDTO(o dto.OwnerDTO) entity.Owner {
	return entity.Owner{Tier: entity.OwnerTier(o.Tier), ID: o.ID}
}

func ownerToDTO(o entity.Owner) dto.OwnerDTO {
	return dto.OwnerDTO{Tier: string(o.Tier), ID: o.ID}
}

func lotToDTO(lot *entity.StockLot) dto.LotResponse {
	return dto.LotResponse{
		ID:                lot.ID,
		VaccineID:         lot.VaccineID,
		Owner:             ownerToDTO(lot.Owner),
		Quantity:          lot.Quantity,
		RemainingQuantity: lot.RemainingQuantity,
		Expiration:        lot.Expiration,
		Status:            lot.Status,
		SourceLotID:       lot.SourceLotID,
	}
}
