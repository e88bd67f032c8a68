package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/focustube-backend/internal/domain"
	"github.com/yungbote/focustube-backend/internal/http/middleware"
	"github.com/yungbote/focustube-backend/internal/http/response"
	"github.com/yungbote/focustube-backend/internal/services"
)

type SessionHandler struct {
	sessions services.FocusSessionService
}

func NewSessionHandler(sessions services.FocusSessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

type startSessionRequest struct {
	Topic string `json:"topic" binding:"required"`
}

type videoEventRequest struct {
	SessionID   string `json:"session_id" binding:"required"`
	VideoID     string `json:"video_id" binding:"required"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

type lifecycleEventRequest struct {
	EventID         string `json:"event_id" binding:"required"`
	Type            string `json:"type" binding:"required"`
	ClientTimestamp string `json:"client_timestamp"`
}

func sessionView(s types.FocusSession) gin.H {
	return gin.H{
		"id":                      s.ID,
		"topic":                   s.Topic,
		"status":                  s.Status,
		"invalid_reason":          s.InvalidReason,
		"focus_length_minutes":    s.FocusLengthMinutes,
		"start_time":              s.StartTime,
		"total_focus_seconds":     s.TotalFocusSeconds,
		"active_video_id":         s.ActiveVideoID,
		"recovery_active":         s.RecoveryActive,
		"recovery_window_ends_at": s.RecoveryWindowEndsAt,
		"recovery_count":          s.RecoveryCount,
		"completed":               s.Completed,
	}
}

func sessionIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return uuid.Nil, false
	}
	return id, true
}

// GET /api/sessions/current
func (h *SessionHandler) GetCurrent(c *gin.Context) {
	cur, err := h.sessions.GetCurrentSession(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	var session any
	if cur.Session != nil {
		session = sessionView(*cur.Session)
	}
	response.RespondOK(c, gin.H{
		"focus_length_minutes": cur.FocusLengthMinutes,
		"session":              session,
	})
}

// POST /api/sessions/start
func (h *SessionHandler) Start(c *gin.Context) {
	var req startSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	s, err := h.sessions.StartSession(c.Request.Context(), middleware.OwnerID(c), req.Topic)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"session_id": s.ID, "session": sessionView(s)})
}

// POST /api/sessions/video-event
func (h *SessionHandler) VideoEvent(c *gin.Context) {
	var req videoEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	sessionID, err := uuid.Parse(req.SessionID)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	res, err := h.sessions.SubmitVideoEvent(c.Request.Context(), services.VideoEventInput{
		SessionID:   sessionID,
		OwnerID:     middleware.OwnerID(c),
		VideoID:     req.VideoID,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	out := gin.H{
		"status":                  res.Session.Status,
		"invalid_reason":          res.Session.InvalidReason,
		"recovery_active":         res.Session.RecoveryActive,
		"recovery_window_ends_at": res.Session.RecoveryWindowEndsAt,
		"recovery_count":          res.Session.RecoveryCount,
		"short_circuited":         res.ShortCircuited,
	}
	if !res.ShortCircuited {
		out["decision"] = res.Verdict.Decision
		out["confidence"] = res.Verdict.Confidence
		out["reason"] = res.Verdict.Reason
		out["source"] = res.Verdict.Source
	}
	response.RespondOK(c, out)
}

// POST /api/sessions/:id/heartbeat
func (h *SessionHandler) Heartbeat(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	ack, err := h.sessions.Heartbeat(c.Request.Context(), sessionID, middleware.OwnerID(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"success":             ack.Accepted,
		"gained_seconds":      ack.GainedSeconds,
		"total_focus_seconds": ack.TotalFocusSeconds,
		"status":              ack.Status,
		"invalid_reason":      ack.InvalidReason,
	})
}

// POST /api/sessions/:id/events
func (h *SessionHandler) LifecycleEvent(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	var req lifecycleEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	ack, err := h.sessions.SubmitLifecycleEvent(c.Request.Context(), services.LifecycleEventInput{
		SessionID:       sessionID,
		OwnerID:         middleware.OwnerID(c),
		EventID:         req.EventID,
		Type:            req.Type,
		ClientTimestamp: req.ClientTimestamp,
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{
		"duplicate": ack.Duplicate,
		"applied":   ack.Applied,
		"session":   sessionView(ack.Session),
	})
}

// POST /api/sessions/:id/complete
func (h *SessionHandler) Complete(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	res, err := h.sessions.CompleteSession(c.Request.Context(), sessionID, middleware.OwnerID(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if res.AlreadyCompleted {
		response.RespondOK(c, gin.H{
			"success":           true,
			"already_completed": true,
			"session":           sessionView(res.Session),
		})
		return
	}
	unlocked := make([]gin.H, 0, len(res.Unlocked))
	for _, a := range res.Unlocked {
		unlocked = append(unlocked, gin.H{
			"id":            a.ID,
			"title":         a.Title,
			"description":   a.Description,
			"reward_points": a.RewardPoints,
			"icon":          a.Icon,
		})
	}
	response.RespondOK(c, gin.H{
		"success":           true,
		"already_completed": false,
		"session":           sessionView(res.Session),
		"reward":            res.Reward,
		"unlocked":          unlocked,
		"stats": gin.H{
			"total_sessions":      res.User.TotalSessions,
			"total_focus_minutes": res.User.TotalFocusMinutes,
			"points":              res.User.Points,
			"current_streak":      res.User.CurrentStreak,
			"longest_streak":      res.User.LongestStreak,
		},
	})
}

// POST /api/sessions/:id/reset
func (h *SessionHandler) Reset(c *gin.Context) {
	sessionID, ok := sessionIDParam(c)
	if !ok {
		return
	}
	s, err := h.sessions.ResetSession(c.Request.Context(), sessionID, middleware.OwnerID(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"success": true, "session": sessionView(s)})
}
