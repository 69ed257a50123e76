package handlers

import (
	"net/http"
	"strconv"

	"gestionale/internal/apperr"
	"gestionale/internal/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// fail writes a structured error response. Unknown errors become opaque
// 500s; the detail goes to the log, not the client.
func fail(c *gin.Context, err error) {
	if ae, ok := apperr.As(err); ok {
		c.JSON(ae.HTTPStatus, ae)
		return
	}
	logger.Error("unhandled error",
		zap.String("path", c.Request.URL.Path),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, apperr.Internal("Errore interno.", nil))
}

func failValidation(c *gin.Context, fields map[string]any) {
	fail(c, apperr.Validation(fields))
}

func failNotFound(c *gin.Context) {
	fail(c, apperr.NotFound("Oggetto non trovato."))
}

// parseID reads the :id route param; 0, false on garbage.
func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		fail(c, apperr.BadRequest("ID non valido."))
		return 0, false
	}
	return uint(id), true
}
