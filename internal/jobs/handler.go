package jobs

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// FailureResponse is the body of a failed job run.
type FailureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func NewFailureResponse(err error) FailureResponse {
	return FailureResponse{Success: false, Error: err.Error()}
}

type HTTPHandler struct {
	runner *Runner
}

func NewHTTPHandler(runner *Runner) *HTTPHandler {
	return &HTTPHandler{runner: runner}
}

// RegisterRoutes mounts the job triggers. Request bodies are ignored.
func (h *HTTPHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/pipeline-alerts", h.PipelineAlerts)
	rg.GET("/pipeline-alerts", h.PipelineAlerts)
	rg.POST("/forecast-snapshot", h.ForecastSnapshot)
	rg.GET("/forecast-snapshot", h.ForecastSnapshot)
}

func (h *HTTPHandler) PipelineAlerts(c *gin.Context) {
	resp, err := h.runner.RunPipelineAlerts(c.Request.Context(), TriggerHTTP)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewFailureResponse(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *HTTPHandler) ForecastSnapshot(c *gin.Context) {
	resp, err := h.runner.RunForecastSnapshot(c.Request.Context(), TriggerHTTP)
	if err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, NewFailureResponse(err))
		return
	}
	c.JSON(http.StatusOK, resp)
}
