package http

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
)

// HeaderUserID cabecera con la identidad del usuario, puesta por el gateway que autentica.
const HeaderUserID = "X-User-ID"

// LocalUserID key de Fiber Locals para el usuario que actúa.
const LocalUserID = "user_id"

// ActorMiddleware copia X-User-ID a c.Locals. La autenticación ocurre antes de llegar aquí;
// sin cabecera el usuario queda vacío.
func ActorMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(LocalUserID, strings.TrimSpace(c.Get(HeaderUserID)))
		return c.Next()
	}
}

// GetUserID devuelve el usuario del contexto (después de ActorMiddleware).
func GetUserID(c *fiber.Ctx) string {
	v := c.Locals(LocalUserID)
	if v == nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// RequestLogger registra una línea por petición y deja el logger en el contexto de usuario
// para que los handlers lo recuperen con zerolog.Ctx.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		c.SetUserContext(log.WithContext(c.UserContext()))

		err := c.Next()
		if err != nil {
			// Deja que el ErrorHandler escriba la respuesta antes de leer el status.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		status := c.Response().StatusCode()
		ev := log.Info()
		if status >= fiber.StatusInternalServerError {
			ev = log.Error()
		} else if status >= fiber.StatusBadRequest {
			ev = log.Warn()
		}
		ev.Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("actor", GetUserID(c)).
			Msg("http")
		return nil
	}
}
