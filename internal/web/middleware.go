package web

import (
	"context"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/ticket-web/internal/apiclient"
	"github.com/spec-kit/ticket-web/internal/observability"
	apperrors "github.com/spec-kit/ticket-web/pkg/util"
)

// RegisterMiddlewares attaches global middlewares such as request ids, error
// pages and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	app.Use(requestIDMiddleware())
	app.Use(observability.RequestLogger(logger, metrics))
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
}

// requestIDMiddleware reuses an inbound X-Request-Id or assigns one, and
// hands it to the API client through the user context.
func requestIDMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		rid := strings.TrimSpace(c.Get(observability.RequestIDKey))
		if rid == "" || len(rid) > 128 {
			rid = uuid.NewString()
		}
		c.Locals(observability.RequestIDKey, rid)
		c.Set(observability.RequestIDKey, rid)
		c.SetUserContext(apiclient.WithRequestID(c.UserContext(), rid))
		return c.Next()
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err != nil {
				domainErr := apperrors.ToDomainError(err)
				metrics.RecordError(c.Path(), c.Method(), domainErr.Code)
				if domainErr.HTTPStatus >= 500 {
					logger.Error("request failed",
						zap.String("request_id", observability.RequestID(c)),
						zap.Error(domainErr))
				}
				err = writeError(c, domainErr)
			}
		}()
		return c.Next()
	}
}

// writeError renders JSON for probe endpoints and an HTML page otherwise.
func writeError(c *fiber.Ctx, domainErr *apperrors.DomainError) error {
	c.Status(domainErr.HTTPStatus)
	if strings.HasPrefix(c.Path(), "/health") {
		response := fiber.Map{"error": fiber.Map{
			"code":    domainErr.Code,
			"message": domainErr.Message,
		}}
		if len(domainErr.Details) > 0 {
			response["error"].(fiber.Map)["details"] = domainErr.Details
		}
		return c.JSON(response)
	}
	if err := c.Render("error", fiber.Map{
		"Title":   "Error",
		"Nav":     "",
		"Status":  domainErr.HTTPStatus,
		"Message": domainErr.Message,
	}, layout); err != nil {
		return c.SendString(domainErr.Message)
	}
	return nil
}
