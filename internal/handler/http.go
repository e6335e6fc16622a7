package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"motion-server/internal/models"
	"motion-server/internal/service"
)

// GenerationHandler exposes the decision-and-execution core over HTTP.
type GenerationHandler struct {
	service *service.GenerationService
	logger  *zap.Logger
}

// NewGenerationHandler creates the handler.
func NewGenerationHandler(svc *service.GenerationService, logger *zap.Logger) *GenerationHandler {
	return &GenerationHandler{
		service: svc,
		logger:  logger.Named("GenerationHandler"),
	}
}

// RegisterRoutes mounts the API routes.
func (h *GenerationHandler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		api.POST("/projects/:projectId/generate", h.generate)
		api.GET("/projects/:projectId/scenes", h.listScenes)
		api.GET("/scenes/:sceneId/iterations", h.listIterations)
		api.POST("/scenes/:sceneId/revert", h.revert)
	}
}

func (h *GenerationHandler) generate(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}

	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result, err := h.service.Generate(c.Request.Context(), service.GenerateRequest{
		ProjectID:   projectID,
		UserID:      req.UserID,
		UserMessage: req.Message,
		ChatHistory: req.ChatHistory,
		UserCtx: models.UserContext{
			ImageURLs:     req.ImageURLs,
			VideoURLs:     req.VideoURLs,
			ModelOverride: req.ModelOverride,
			ErrorDetails:  req.ErrorDetails,
		},
		MessageID: req.MessageID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, generateResponse{
		Success:               true,
		Operation:             result.Operation,
		Scene:                 result.Scene,
		NeedsClarification:    result.NeedsClarification(),
		ClarificationQuestion: result.ClarificationQuestion,
		UserFeedback:          result.UserFeedback,
		Reasoning:             result.Reasoning,
	})
}

func (h *GenerationHandler) listScenes(c *gin.Context) {
	projectID, err := uuid.Parse(c.Param("projectId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid project id"})
		return
	}

	scenes, err := h.service.ListScenes(c.Request.Context(), projectID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if scenes == nil {
		scenes = []models.Scene{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scenes": scenes})
}

func (h *GenerationHandler) listIterations(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("sceneId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid scene id"})
		return
	}

	iterations, err := h.service.ListIterations(c.Request.Context(), sceneID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if iterations == nil {
		iterations = []models.SceneIteration{}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "iterations": iterations})
}

func (h *GenerationHandler) revert(c *gin.Context) {
	sceneID, err := uuid.Parse(c.Param("sceneId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid scene id"})
		return
	}

	var req revertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	scene, err := h.service.RevertScene(c.Request.Context(), sceneID, req.IterationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "scene": scene})
}

// respondError maps the error taxonomy onto HTTP statuses without leaking
// provider payloads.
func (h *GenerationHandler) respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	switch {
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "scene not found"})
	case errors.Is(err, models.ErrDecisionFailed):
		c.JSON(http.StatusBadGateway, errorResponse{Error: "could not decide on an operation, please try again"})
	case errors.Is(err, models.ErrToolFailed):
		c.JSON(http.StatusBadGateway, errorResponse{Error: "generation failed, please try again"})
	case errors.Is(err, models.ErrInvalidDecision):
		c.JSON(http.StatusUnprocessableEntity, errorResponse{Error: "the request could not be resolved to a valid operation"})
	default:
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
