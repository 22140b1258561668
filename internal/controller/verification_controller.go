package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/lucasacchiricciardi/DBVerifyPro/internal/database"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/middleware"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/model"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/service"
	"github.com/lucasacchiricciardi/DBVerifyPro/internal/utils"
	"github.com/lucasacchiricciardi/DBVerifyPro/pkg/response"
)

// VerifyRequest is the body of a verification run request.
type VerifyRequest struct {
	Source model.ConnectionDescriptor `json:"source" binding:"required"`
	Target model.ConnectionDescriptor `json:"target" binding:"required"`
	RunID  string                     `json:"runId"`
}

// VerifyResult pairs the run identifier with the summary.
type VerifyResult struct {
	RunID   string            `json:"runId"`
	Summary *model.RunSummary `json:"summary"`
}

// BackendInfo describes one supported backend kind.
type BackendInfo struct {
	Kind        model.BackendKind `json:"kind"`
	Network     bool              `json:"network"`
	DefaultPort int               `json:"defaultPort,omitempty"`
}

type VerificationController struct {
	service *service.VerificationService
	logger  *logrus.Logger
}

func NewVerificationController(svc *service.VerificationService, logger *logrus.Logger) *VerificationController {
	return &VerificationController{
		service: svc,
		logger:  logger,
	}
}

// Verify godoc
// @Summary Run a verification
// @Description Verifies the target database against the source database and returns a per-table report
// @Tags verification
// @Accept json
// @Produce json
// @Param request body VerifyRequest true "Source and target connection descriptors"
// @Success 200 {object} response.StandardResponse{data=VerifyResult}
// @Failure 400 {object} response.StandardResponse
// @Router /api/v1/verify [post]
func (vc *VerificationController) Verify(c *gin.Context) {
	correlationID := vc.getCorrelationID(c)

	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}

	runID := req.RunID
	if runID == "" {
		runID = utils.GenerateUUID()
	}

	summary, err := vc.service.Verify(c.Request.Context(), req.Source, req.Target, runID)
	if err != nil {
		vc.respondError(c, err, correlationID)
		return
	}

	c.JSON(http.StatusOK, response.SuccessResponse(VerifyResult{
		RunID:   runID,
		Summary: summary,
	}, correlationID))
}

// TestConnection godoc
// @Summary Test a connection descriptor
// @Description Checks that the described database can be reached without starting a run
// @Tags verification
// @Accept json
// @Produce json
// @Param request body model.ConnectionDescriptor true "Connection descriptor"
// @Success 200 {object} response.StandardResponse
// @Failure 400 {object} response.StandardResponse
// @Router /api/v1/test-connection [post]
func (vc *VerificationController) TestConnection(c *gin.Context) {
	correlationID := vc.getCorrelationID(c)

	var desc model.ConnectionDescriptor
	if err := c.ShouldBindJSON(&desc); err != nil {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest,
			"Invalid request body: "+err.Error(),
			"",
			correlationID,
		))
		return
	}

	if err := vc.service.TestConnectivity(c.Request.Context(), desc); err != nil {
		vc.respondError(c, err, correlationID)
		return
	}

	c.JSON(http.StatusOK, response.SuccessMessageResponse("connection successful", correlationID))
}

// Backends godoc
// @Summary List supported backends
// @Description Returns the supported backend kinds with their default ports
// @Tags verification
// @Produce json
// @Success 200 {object} response.StandardResponse{data=[]BackendInfo}
// @Router /api/v1/backends [get]
func (vc *VerificationController) Backends(c *gin.Context) {
	correlationID := vc.getCorrelationID(c)

	kinds := model.SupportedBackends()
	backends := make([]BackendInfo, 0, len(kinds))
	for _, kind := range kinds {
		info := BackendInfo{Kind: kind, Network: kind.IsNetwork()}
		if driver, err := database.ForKind(kind); err == nil && kind.IsNetwork() {
			info.DefaultPort = driver.DefaultPort()
		}
		backends = append(backends, info)
	}

	c.JSON(http.StatusOK, response.SuccessResponse(backends, correlationID))
}

// Progress godoc
// @Summary Stream run progress
// @Description Streams progress events for a run as server-sent events until the run completes
// @Tags verification
// @Produce text/event-stream
// @Param runId path string true "Run identifier"
// @Router /api/v1/progress/{runId} [get]
func (vc *VerificationController) Progress(c *gin.Context) {
	runID := c.Param("runId")
	if runID == "" {
		c.JSON(http.StatusBadRequest, response.ErrorResponse(
			utils.ErrCodeInvalidRequest,
			"run id is required",
			"",
			vc.getCorrelationID(c),
		))
		return
	}

	ch := vc.service.Subscribe(runID)
	defer vc.service.Unsubscribe(runID, ch)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	clientGone := c.Request.Context().Done()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-clientGone:
			return false
		case event, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent("progress", event)
			if event.Stage == model.StageCompleted || event.Stage == model.StageFailed {
				return false
			}
			return true
		}
	})
}

func (vc *VerificationController) respondError(c *gin.Context, err error, correlationID string) {
	if appErr, ok := utils.AsAppError(err); ok {
		vc.logger.WithFields(logrus.Fields{
			"correlation_id": correlationID,
			"code":           appErr.Code,
		}).WithError(err).Warn("request failed")
		c.JSON(appErr.StatusCode(), response.ErrorResponseFromAppError(appErr, correlationID))
		return
	}

	vc.logger.WithField("correlation_id", correlationID).WithError(err).Error("request failed")
	c.JSON(http.StatusInternalServerError, response.InternalServerErrorResponse(correlationID))
}

func (vc *VerificationController) getCorrelationID(c *gin.Context) string {
	if id, exists := c.Get(middleware.CorrelationIDKey); exists {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
