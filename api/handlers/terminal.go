// Package handlers provides HTTP API request handlers.
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/termhost/backend/internal/model"
	"github.com/termhost/backend/internal/repository"
	"github.com/termhost/backend/internal/session"
)

// TerminalHandler handles HTTP requests for terminal session management.
type TerminalHandler struct {
	manager *session.Manager
	repo    *repository.SessionRepository
}

// NewTerminalHandler creates a new TerminalHandler.
func NewTerminalHandler(manager *session.Manager, repo *repository.SessionRepository) *TerminalHandler {
	return &TerminalHandler{
		manager: manager,
		repo:    repo,
	}
}

// CreateTerminalRequest represents the request body for creating a terminal.
type CreateTerminalRequest struct {
	Cols uint16 `json:"cols"`
	Rows uint16 `json:"rows"`
	Cwd  string `json:"cwd"`
}

// CreateTerminalResponse carries the id of a newly created terminal.
type CreateTerminalResponse struct {
	SessionID string `json:"sessionId"`
}

// InputRequest represents the request body for writing terminal input.
type InputRequest struct {
	Data string `json:"data" binding:"required"`
}

// ResizeRequest represents the request body for resizing a terminal.
type ResizeRequest struct {
	Cols uint16 `json:"cols" binding:"required"`
	Rows uint16 `json:"rows" binding:"required"`
}

// KillRequest represents the request body for force-killing terminals.
type KillRequest struct {
	SessionID string `json:"sessionId"`
}

// TerminalResponse represents a terminal session in API responses.
type TerminalResponse struct {
	ID            string `json:"id"`
	Shell         string `json:"shell"`
	Workdir       string `json:"workdir"`
	Cols          uint16 `json:"cols"`
	Rows          uint16 `json:"rows"`
	Status        string `json:"status"`
	ExitCode      *int   `json:"exitCode,omitempty"`
	Signal        string `json:"signal,omitempty"`
	PID           *int   `json:"pid,omitempty"`
	RecordingPath string `json:"recordingPath,omitempty"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// toTerminalResponse converts a model.Session to TerminalResponse.
func toTerminalResponse(s *model.Session) *TerminalResponse {
	return &TerminalResponse{
		ID:            s.ID,
		Shell:         s.Shell,
		Workdir:       s.Workdir,
		Cols:          s.Cols,
		Rows:          s.Rows,
		Status:        string(s.Status),
		ExitCode:      s.ExitCode,
		Signal:        s.Signal,
		PID:           s.PID,
		RecordingPath: s.RecordingPath,
		CreatedAt:     s.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.Format(time.RFC3339),
	}
}

// sendError sends an error response with the appropriate status code.
func sendError(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// sendManagerError maps a session manager error to an HTTP error response.
func sendManagerError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, model.ErrSessionNotFound):
		sendError(c, http.StatusNotFound, "SESSION_NOT_FOUND", err.Error())
	case errors.Is(err, model.ErrInvalidWorkingDirectory):
		sendError(c, http.StatusBadRequest, "INVALID_WORKING_DIRECTORY", err.Error())
	default:
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", err.Error())
	}
}

// RegisterRoutes registers terminal routes on the given router group.
func (h *TerminalHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/kill", h.Kill)

	terminals := rg.Group("/terminals")
	{
		terminals.POST("", h.Create)
		terminals.GET("", h.List)
		terminals.GET("/:id", h.Get)
		terminals.DELETE("/:id", h.Close)
		terminals.POST("/:id/input", h.Input)
		terminals.POST("/:id/resize", h.Resize)
		terminals.POST("/:id/restart", h.Restart)
		terminals.GET("/:id/recording", h.Recording)
	}
}

// Create handles POST /api/terminals - spawns a new terminal session.
func (h *TerminalHandler) Create(c *gin.Context) {
	var req CreateTerminalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
			return
		}
	}

	id, err := h.manager.Create(c.Request.Context(), model.CreateTerminalRequest{
		Cols: req.Cols,
		Rows: req.Rows,
		Cwd:  req.Cwd,
	})
	if err != nil {
		sendManagerError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateTerminalResponse{SessionID: id})
}

// List handles GET /api/terminals - lists all known terminal sessions.
func (h *TerminalHandler) List(c *gin.Context) {
	sessions, err := h.repo.List(c.Request.Context())
	if err != nil {
		sendError(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list sessions: "+err.Error())
		return
	}

	response := make([]*TerminalResponse, 0, len(sessions))
	for _, sess := range sessions {
		// The exit watcher updates the record asynchronously; report the
		// live state when the process is already gone.
		if sess.Status == model.SessionStatusRunning && !h.manager.Has(sess.ID) {
			sess.Status = model.SessionStatusExited
		}
		response = append(response, toTerminalResponse(sess))
	}

	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/terminals/:id - gets a specific terminal session.
func (h *TerminalHandler) Get(c *gin.Context) {
	sessionID := c.Param("id")

	sess, err := h.repo.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		sendManagerError(c, err)
		return
	}

	if sess.Status == model.SessionStatusRunning && !h.manager.Has(sess.ID) {
		sess.Status = model.SessionStatusExited
	}

	c.JSON(http.StatusOK, toTerminalResponse(sess))
}

// Input handles POST /api/terminals/:id/input - writes raw bytes to the
// terminal's stdin.
func (h *TerminalHandler) Input(c *gin.Context) {
	sessionID := c.Param("id")

	var req InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	if err := h.manager.Write(sessionID, []byte(req.Data)); err != nil {
		sendManagerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Resize handles POST /api/terminals/:id/resize - changes the terminal's
// window size.
func (h *TerminalHandler) Resize(c *gin.Context) {
	sessionID := c.Param("id")

	var req ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
		return
	}

	if err := h.manager.Resize(sessionID, req.Cols, req.Rows); err != nil {
		sendManagerError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// Restart handles POST /api/terminals/:id/restart - replaces the terminal
// with a fresh one and returns the new session id.
func (h *TerminalHandler) Restart(c *gin.Context) {
	sessionID := c.Param("id")

	var req CreateTerminalRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
			return
		}
	}

	id, err := h.manager.Restart(c.Request.Context(), sessionID, model.CreateTerminalRequest{
		Cols: req.Cols,
		Rows: req.Rows,
		Cwd:  req.Cwd,
	})
	if err != nil {
		sendManagerError(c, err)
		return
	}

	c.JSON(http.StatusOK, CreateTerminalResponse{SessionID: id})
}

// Close handles DELETE /api/terminals/:id - closes a terminal session.
// Closing an unknown or already-closed session is not an error.
func (h *TerminalHandler) Close(c *gin.Context) {
	sessionID := c.Param("id")

	h.manager.Close(sessionID)
	c.Status(http.StatusNoContent)
}

// Kill handles POST /api/kill - force-kills one terminal when a
// session id is given, or every live terminal otherwise.
func (h *TerminalHandler) Kill(c *gin.Context) {
	var req KillRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			sendError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body: "+err.Error())
			return
		}
	}

	h.manager.ForceKill(req.SessionID)
	c.Status(http.StatusNoContent)
}

// Recording handles GET /api/terminals/:id/recording - serves the session's
// asciinema recording.
func (h *TerminalHandler) Recording(c *gin.Context) {
	sessionID := c.Param("id")

	sess, err := h.repo.GetByID(c.Request.Context(), sessionID)
	if err != nil {
		sendManagerError(c, err)
		return
	}

	if sess.RecordingPath == "" {
		sendError(c, http.StatusNotFound, "RECORDING_NOT_FOUND", "No recording for session "+sessionID)
		return
	}

	c.Header("Content-Type", "application/x-asciicast")
	c.File(sess.RecordingPath)
}
