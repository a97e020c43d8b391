package handlers

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hireprep/hireprep/internal/models"
	"github.com/hireprep/hireprep/internal/services"
	"github.com/hireprep/hireprep/internal/utils"
)

type InterviewHandler struct {
	svc services.InterviewService
}

func NewInterviewHandler(svc services.InterviewService) *InterviewHandler {
	return &InterviewHandler{svc: svc}
}

type StartInterviewRequest struct {
	Role           string `json:"role" binding:"required"`
	JobDescription string `json:"job_description"`
	Duration       int    `json:"duration" binding:"required"` // minutes: 15|30|45
}

func (h *InterviewHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartInterviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "InterviewHandler.Start", "invalid request body", err))
		return
	}

	session, err := h.svc.Start(c.Request.Context(), userID, req.Role, req.JobDescription, req.Duration)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

func (h *InterviewHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	session, err := h.svc.Get(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

func (h *InterviewHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	limit := int64(50)
	if s := c.Query("limit"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	rows, err := h.svc.ListByUser(c.Request.Context(), userID, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interviews": rows})
}

type AnswerRequest struct {
	Answer      string `json:"answer"`
	AudioBase64 string `json:"audio_base64,omitempty"`
}

type AnswerResponse struct {
	Session   *models.InterviewSession `json:"session"`
	Persisted bool                     `json:"persisted"`
	Finalized bool                     `json:"finalized"`
}

// Answer submits one answer for the current question. The oral/written rule
// lives here at the boundary, not in the service: written answers must be
// non-empty, oral answers are optional notes.
func (h *InterviewHandler) Answer(c *gin.Context) {
	const op = "InterviewHandler.Answer"

	userID, ok := requireUserID(c)
	if !ok {
		return
	}
	interviewID := c.Param("interview_id")

	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	session, err := h.svc.Get(c.Request.Context(), userID, interviewID)
	if err != nil {
		writeError(c, err)
		return
	}

	if len(session.Questions) > 0 && !session.IsTerminal() {
		current := session.Questions[session.CurrentQuestionIndex()]
		if current.Stage == models.StageTechnicalWritten &&
			strings.TrimSpace(req.Answer) == "" && req.AudioBase64 == "" {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "a written answer is required for this question", nil))
			return
		}
	}

	var audio []byte
	if req.AudioBase64 != "" {
		raw := req.AudioBase64
		if i := strings.Index(raw, ","); i >= 0 {
			raw = raw[i+1:] // strip data:...;base64,
		}
		decoded, derr := base64.StdEncoding.DecodeString(raw)
		if derr != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid audio_base64", derr))
			return
		}
		audio = decoded
	}

	res, err := h.svc.Advance(c.Request.Context(), userID, interviewID, req.Answer, audio)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, AnswerResponse{
		Session:   res.Session,
		Persisted: res.Persisted,
		Finalized: res.Finalized,
	})
}

func (h *InterviewHandler) Cancel(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	session, err := h.svc.Cancel(c.Request.Context(), userID, c.Param("interview_id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// AdminListByUser lets support staff review any user's interview history.
func (h *InterviewHandler) AdminListByUser(c *gin.Context) {
	rows, err := h.svc.ListByUser(c.Request.Context(), c.Param("user_id"), 100)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"interviews": rows})
}
