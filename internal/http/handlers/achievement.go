package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/focustube-backend/internal/http/middleware"
	"github.com/yungbote/focustube-backend/internal/http/response"
	"github.com/yungbote/focustube-backend/internal/services"
)

type AchievementHandler struct {
	achievements services.AchievementService
}

func NewAchievementHandler(achievements services.AchievementService) *AchievementHandler {
	return &AchievementHandler{achievements: achievements}
}

// GET /api/achievements
func (h *AchievementHandler) List(c *gin.Context) {
	rows, err := h.achievements.ListActive(c.Request.Context())
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"achievements": rows})
}

// GET /api/achievements/preview
func (h *AchievementHandler) Preview(c *gin.Context) {
	p, err := h.achievements.Preview(c.Request.Context(), middleware.OwnerID(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	recent := make([]gin.H, 0, len(p.Recent))
	for _, r := range p.Recent {
		recent = append(recent, gin.H{
			"id":          r.Achievement.ID,
			"title":       r.Achievement.Title,
			"icon":        r.Achievement.Icon,
			"unlocked_at": r.UnlockedAt,
		})
	}
	inProgress := make([]gin.H, 0, len(p.InProgress))
	for _, ip := range p.InProgress {
		inProgress = append(inProgress, gin.H{
			"id":       ip.Achievement.ID,
			"title":    ip.Achievement.Title,
			"icon":     ip.Achievement.Icon,
			"progress": ip.Progress,
		})
	}
	response.RespondOK(c, gin.H{
		"unlocked_count": p.UnlockedCount,
		"total_count":    p.TotalCount,
		"recent":         recent,
		"in_progress":    inProgress,
	})
}
