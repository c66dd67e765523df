package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"foodcourt-backend/internal/engine"
	"foodcourt-backend/internal/finance"
	"foodcourt-backend/internal/logger"
	"foodcourt-backend/internal/store"
)

// routeLabel names the request for logs by its actual mount point, so a
// handler mounted on more than one path reports the path that was hit.
func routeLabel(c *gin.Context) string {
	return c.Request.Method + " " + c.FullPath()
}

func handlePanic(c *gin.Context, log logger.ILogger, route string) {
	if r := recover(); r != nil {
		log.Error("panic recovered", logger.String("route", route), logger.Any("panic", r))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func respondWithError(c *gin.Context, log logger.ILogger, status int, route string, message string) {
	log.Warning("request rejected",
		logger.String("route", route),
		logger.Int("status", status),
		logger.String("error", message))
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

// respondCoreError maps the core error taxonomy onto HTTP. Transition
// rejections carry the current true status so the client can re-decide.
func respondCoreError(c *gin.Context, log logger.ILogger, route string, err error) {
	var invalid engine.InvalidTransitionError
	if errors.As(err, &invalid) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":         invalid.Error(),
			"currentStatus": invalid.Current,
		})
		return
	}
	var stale engine.StaleWriteError
	if errors.As(err, &stale) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{
			"error":         stale.Error(),
			"currentStatus": stale.Current,
		})
		return
	}
	var notSettled finance.NotSettledError
	if errors.As(err, &notSettled) {
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{
			"error": "payment not yet settled",
		})
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "order not found"})
		return
	}
	var unavailable store.UnavailableError
	if errors.As(err, &unavailable) {
		respondWithError(c, log, http.StatusServiceUnavailable, route, "store unavailable, retry later")
		return
	}
	respondWithError(c, log, http.StatusInternalServerError, route, "internal error")
}
