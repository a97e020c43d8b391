package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/services"
	"github.com/hireprep/hireprep/internal/utils"
)

type ProfileHandler struct {
	svc services.ProfileService
}

func NewProfileHandler(svc services.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

func (h *ProfileHandler) Me(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	p, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, p)
}

type UpdateProfileRequest struct {
	FullName   *string `json:"full_name,omitempty"`
	Headline   *string `json:"headline,omitempty"`
	ResumeText *string `json:"resume_text,omitempty"`

	Skills *[]string `json:"skills,omitempty"`

	// JSONB fields (raw)
	Experience  *json.RawMessage `json:"experience,omitempty"`
	Education   *json.RawMessage `json:"education,omitempty"`
	Preferences *json.RawMessage `json:"preferences,omitempty"`
}

func (h *ProfileHandler) Update(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ProfileHandler.Update", "invalid request body", err))
		return
	}

	// load existing; missing profile means a fresh one
	existing, err := h.svc.GetMe(c.Request.Context(), userID)
	if err != nil {
		if utils.IsCode(err, utils.CodeNotFound) {
			existing = &models.Profile{UserID: userID}
		} else {
			writeError(c, err)
			return
		}
	}

	if req.FullName != nil {
		existing.FullName = *req.FullName
	}
	if req.Headline != nil {
		existing.Headline = *req.Headline
	}
	if req.ResumeText != nil {
		existing.ResumeText = *req.ResumeText
	}
	if req.Skills != nil {
		existing.Skills = *req.Skills
	}
	if req.Experience != nil {
		existing.Experience = datatypes.JSON(*req.Experience)
	}
	if req.Education != nil {
		existing.Education = datatypes.JSON(*req.Education)
	}
	if req.Preferences != nil {
		existing.Preferences = datatypes.JSON(*req.Preferences)
	}

	existing.UpdatedAt = time.Now().UTC()

	if err := h.svc.Upsert(c.Request.Context(), existing); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, existing)
}
