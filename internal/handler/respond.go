package handler

import (
	"net/http"

	"github.com/confera/auth-service/internal/apperr"
	"github.com/confera/auth-service/internal/dto"
	"github.com/confera/auth-service/internal/reqctx"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps a service error onto the {error} envelope with the
// status code of its kind. Unknown errors become a 500; their cause is
// logged, never echoed to the caller.
func respondError(c *gin.Context, err error) {
	e := apperr.From(err)

	if e.Kind == apperr.KindDependency {
		zap.L().Error("request failed",
			zap.String("path", c.Request.URL.Path),
			zap.String("correlation_id", reqctx.CorrelationID(c.Request.Context())),
			zap.Error(err),
		)
	}

	c.JSON(e.Kind.Status(), dto.ErrorResponse{Error: e.Message})
}

// respondValidation reports a request-binding failure.
func respondValidation(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request: " + err.Error()})
}
