package transport

import (
	"net/http"

	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/ds124wfegd/linkhub/internal/service"
	"github.com/ds124wfegd/linkhub/internal/transport/middleware"
	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	pageService  service.PageService
	blockService service.BlockService
}

func NewPageHandler(pageService service.PageService, blockService service.BlockService) *PageHandler {
	return &PageHandler{pageService: pageService, blockService: blockService}
}

func (h *PageHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/users/:username", h.GetPublicPage)

	page := router.Group("/page", middleware.Auth())
	page.GET("", h.GetPage)
	page.PUT("", h.UpdatePage)

	blocks := router.Group("/blocks", middleware.Auth())
	blocks.POST("", h.CreateBlock)
	blocks.PUT("/:id", h.UpdateBlock)
	blocks.DELETE("/:id", h.DeleteBlock)
}

func (h *PageHandler) GetPage(c *gin.Context) {
	page, err := h.pageService.GetOrCreate(c.Request.Context(), middleware.UserEmail(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PageHandler) UpdatePage(c *gin.Context) {
	var req entity.UpdatePageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	page, err := h.pageService.Update(c.Request.Context(), middleware.UserEmail(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *PageHandler) GetPublicPage(c *gin.Context) {
	user, err := h.pageService.GetPublic(c.Request.Context(), c.Param("username"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *PageHandler) CreateBlock(c *gin.Context) {
	var req entity.CreateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := h.blockService.Create(c.Request.Context(), middleware.UserEmail(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, block)
}

func (h *PageHandler) UpdateBlock(c *gin.Context) {
	var req entity.UpdateBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	block, err := h.blockService.Update(c.Request.Context(), middleware.UserEmail(c), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, block)
}

func (h *PageHandler) DeleteBlock(c *gin.Context) {
	if err := h.blockService.Delete(c.Request.Context(), middleware.UserEmail(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Block deleted successfully"})
}
