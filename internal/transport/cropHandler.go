package transport

import (
	"errors"
	"net/http"

	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/service"
	"github.com/ds124wfegd/linkhub/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type CropHandler struct {
	cropService service.CropService
}

func NewCropHandler(cropService service.CropService) *CropHandler {
	return &CropHandler{cropService: cropService}
}

func (h *CropHandler) RegisterRoutes(router *gin.RouterGroup) {
	g := router.Group("/crop", middleware.Auth())
	g.GET("/kinds", h.GetKinds)

	sessions := g.Group("/sessions")
	sessions.POST("", h.OpenSession)
	sessions.GET("/:id", h.GetSession)
	sessions.PUT("/:id/image", h.ReplaceImage)
	sessions.POST("/:id/events", h.ApplyEvents)
	sessions.GET("/:id/preview", h.Preview)
	sessions.POST("/:id/publish", h.Publish)
	sessions.DELETE("/:id", h.CancelSession)
}

type eventsRequest struct {
	Events []crop.Event `json:"events" binding:"required,dive"`
}

func (h *CropHandler) GetKinds(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"kinds": h.cropService.Kinds()})
}

func (h *CropHandler) OpenSession(c *gin.Context) {
	kind := c.PostForm("kind")
	if kind == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind is required"})
		return
	}

	file, ok := formImage(c)
	if !ok {
		return
	}
	defer closeFile(file)

	snap, err := h.cropService.Open(c.Request.Context(), middleware.UserEmail(c), kind, c.PostForm("target_id"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, snap)
}

func (h *CropHandler) GetSession(c *gin.Context) {
	snap, err := h.cropService.Get(c.Request.Context(), middleware.UserEmail(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *CropHandler) ReplaceImage(c *gin.Context) {
	file, ok := formImage(c)
	if !ok {
		return
	}
	defer closeFile(file)

	snap, err := h.cropService.Recapture(c.Request.Context(), middleware.UserEmail(c), c.Param("id"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *CropHandler) ApplyEvents(c *gin.Context) {
	var req eventsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	snap, err := h.cropService.Apply(c.Request.Context(), middleware.UserEmail(c), c.Param("id"), req.Events)
	if errors.Is(err, crop.ErrInvalidEvent) {
		// the batch was rejected whole; send the unchanged state back
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "session": snap})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (h *CropHandler) Preview(c *gin.Context) {
	data, kind, err := h.cropService.Preview(c.Request.Context(), middleware.UserEmail(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, kind.Output.Format.MediaType(), data)
}

func (h *CropHandler) Publish(c *gin.Context) {
	result, err := h.cropService.Publish(c.Request.Context(), middleware.UserEmail(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *CropHandler) CancelSession(c *gin.Context) {
	if err := h.cropService.Cancel(c.Request.Context(), middleware.UserEmail(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// formImage opens the multipart "image" field. It writes the 400 itself.
func formImage(c *gin.Context) (crop.File, bool) {
	header, err := c.FormFile("image")
	if err != nil {
		msg := "No image file provided"
		if !errors.Is(err, http.ErrMissingFile) {
			msg = err.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return crop.File{}, false
	}

	f, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return crop.File{}, false
	}

	return crop.File{
		Name:      header.Filename,
		Size:      header.Size,
		MediaType: header.Header.Get("Content-Type"),
		Data:      f,
	}, true
}

func closeFile(f crop.File) {
	if closer, ok := f.Data.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
}
