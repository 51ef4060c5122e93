package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/tu-usuario/vaxtrack/internal/application/dto"
	"github.com/tu-usuario/vaxtrack/internal/domain/entity"
	"github.com/tu-usuario/vaxtrack/pkg/jwt"
)

// Locals keys para el actor autenticado en Fiber.
const (
	LocalUserID    = "user_id"
	LocalOwnerTier = "owner_tier"
	LocalOwnerID   = "owner_id"
	LocalRole      = "role"
)

// AuthMiddleware valida el Bearer Token JWT y extrae el actor (user + dueño de
// stock al que pertenece) a c.Locals.
func AuthMiddleware(jwtSecret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "Authorization header requerido"})
		}
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "formato: Bearer <token>"})
		}
		tokenString := strings.TrimSpace(parts[1])
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "MISSING_TOKEN", Message: "token vacío"})
		}
		claims, err := jwt.Parse(jwtSecret, tokenString)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token inválido o expirado"})
		}
		owner := entity.Owner{Tier: entity.OwnerTier(claims.OwnerTier), ID: claims.OwnerID}
		if !owner.Valid() {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "dueño de stock inválido en el token"})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalOwnerTier, claims.OwnerTier)
		c.Locals(LocalOwnerID, claims.OwnerID)
		c.Locals(LocalRole, claims.Role)
		return c.Next()
	}
}

// GetUserID devuelve el UserID del contexto (después del middleware de auth).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// GetActingOwner devuelve el dueño de stock del actor autenticado.
// El segundo retorno es false si el contexto no tiene un dueño válido.
func GetActingOwner(c *fiber.Ctx) (entity.Owner, bool) {
	tier, _ := c.Locals(LocalOwnerTier).(string)
	id, _ := c.Locals(LocalOwnerID).(string)
	owner := entity.Owner{Tier: entity.OwnerTier(tier), ID: id}
	if !owner.Valid() {
		return entity.Owner{}, false
	}
	return owner, true
}
