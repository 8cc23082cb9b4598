package transport

import (
	"context"
	"errors"
	"net/http"

	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Handler interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// respondError maps service and crop errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		validation  *crop.ValidationError
		decode      *crop.DecodeError
		emptyCrop   *crop.EmptyCropError
		upload      *crop.UploadError
		persistence *crop.PersistenceError
	)

	switch {
	case errors.As(err, &validation):
		status := http.StatusBadRequest
		if validation.TooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": validation.Error()})
	case errors.As(err, &decode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": decode.Error()})
	case errors.As(err, &emptyCrop):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  emptyCrop.Error(),
			"offset": emptyCrop.Offset,
			"scale":  emptyCrop.Scale,
		})
	case errors.As(err, &upload):
		c.JSON(http.StatusBadGateway, gin.H{"error": upload.Error()})
	case errors.As(err, &persistence):
		// the image is hosted; the client can show or retry with it
		c.JSON(http.StatusBadGateway, gin.H{
			"error":        persistence.Error(),
			"uploaded_url": persistence.URL,
		})

	case errors.Is(err, crop.ErrPublishInProgress),
		errors.Is(err, crop.ErrSessionClosed),
		errors.Is(err, crop.ErrNoImage),
		errors.Is(err, entity.ErrTargetLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})

	case errors.Is(err, crop.ErrInvalidEvent),
		errors.Is(err, entity.ErrInvalidInput),
		errors.Is(err, entity.ErrInvalidBlockType),
		errors.Is(err, entity.ErrUnknownKind):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	case errors.Is(err, entity.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})

	case errors.Is(err, entity.ErrUserNotFound),
		errors.Is(err, entity.ErrPageNotFound),
		errors.Is(err, entity.ErrBlockNotFound),
		errors.Is(err, entity.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

	case errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request timed out"})

	default:
		logrus.WithError(err).WithField("path", c.Request.URL.Path).Error("unhandled error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
