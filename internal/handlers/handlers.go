package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Brownie44l1/predict-api/internal/model"
	"github.com/Brownie44l1/predict-api/internal/requestlog"
)

// Classifier is the read-only view of the loaded model the handlers need.
type Classifier interface {
	Predict(features []float64) (*model.PredictionResponse, error)
}

type Handler struct {
	modelServer Classifier
	recorder    requestlog.Recorder
}

// NewHandler wires the handlers to the model. A nil recorder disables the
// request log.
func NewHandler(modelServer Classifier, recorder requestlog.Recorder) *Handler {
	if recorder == nil {
		recorder = requestlog.Nop{}
	}
	return &Handler{
		modelServer: modelServer,
		recorder:    recorder,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// Predict classifies the feature vector in the request body. Only the shape
// of the body is checked here; a vector of the wrong width is rejected by
// the model and reported as a server error.
func (h *Handler) Predict(c *gin.Context) {
	var req model.PredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	h.recorder.Record(req.Features)

	result, err := h.modelServer.Predict(req.Features)
	if err != nil {
		zap.S().Errorw("prediction failed", "err", err, "features", len(req.Features), "request_id", RequestID(c))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "prediction failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}
