package serverutils

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"signaware-be/internal/apperror"
)

// JwtMiddleware authenticates a request and stores user_id and role in the
// request locals. The token comes from the Authorization header, or from the
// token query parameter for transports that cannot set headers (EventSource,
// browser WebSocket).
func JwtMiddleware(ctx *fiber.Ctx) error {
	tokenStr := ""
	if authHeader := ctx.Get("Authorization"); len(authHeader) > 7 && authHeader[:7] == "Bearer " {
		tokenStr = authHeader[7:]
	} else {
		tokenStr = ctx.Query("token")
	}
	if tokenStr == "" {
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(TypedErrorResponse(fiber.StatusUnauthorized, string(apperror.KindUnauthorized), "missing token"))
	}

	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(TypedErrorResponse(fiber.StatusUnauthorized, string(apperror.KindUnauthorized), "invalid token"))
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ctx.Status(fiber.StatusUnauthorized).
			JSON(TypedErrorResponse(fiber.StatusUnauthorized, string(apperror.KindUnauthorized), "invalid claims"))
	}

	ctx.Locals("user_id", claims["user_id"])
	ctx.Locals("role", claims["role"])
	return ctx.Next()
}
