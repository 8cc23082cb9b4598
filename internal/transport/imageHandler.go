package transport

import (
	"net/http"

	"github.com/ds124wfegd/linkhub/internal/service"
	"github.com/ds124wfegd/linkhub/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	imageService service.ImageService
	cropService  service.CropService
}

func NewImageHandler(imageService service.ImageService, cropService service.CropService) *ImageHandler {
	return &ImageHandler{imageService: imageService, cropService: cropService}
}

func (h *ImageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.DELETE("/images/:kind/:target_id", middleware.Auth(), h.RemoveImage)
}

// RemoveImage clears the slot a kind writes into. Page kinds ignore the
// target id; "-" is the conventional placeholder.
func (h *ImageHandler) RemoveImage(c *gin.Context) {
	kind, err := h.cropService.Kind(c.Param("kind"))
	if err != nil {
		respondError(c, err)
		return
	}

	resp, err := h.imageService.Remove(c.Request.Context(), middleware.UserEmail(c), kind.Target, c.Param("target_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
