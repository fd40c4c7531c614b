package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/internal/application"
	"github.com/oksasatya/tapvote/pkg/response"
	"github.com/oksasatya/tapvote/pkg/validation"
)

type PollHandler struct {
	Svc    *application.PollService
	Logger *logrus.Logger
}

func NewPollHandler(svc *application.PollService, logger *logrus.Logger) *PollHandler {
	return &PollHandler{Svc: svc, Logger: logger}
}

type createPollRequest struct {
	UserID   string   `json:"userId" binding:"required"`
	Title    string   `json:"title" binding:"required"`
	Options  []string `json:"options" binding:"required,min=1"`
	MetaTags []string `json:"metaTags"`
}

type voteRequest struct {
	UserID string `json:"userId" binding:"required"`
	PollID string `json:"pollId" binding:"required"`
	Option string `json:"option" binding:"required"`
}

func (h *PollHandler) Create(c *gin.Context) {
	var req createPollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.CreatePoll(c.Request.Context(), application.CreatePollInput{
		UserID:         req.UserID,
		Title:          req.Title,
		Options:        req.Options,
		MetaTags:       req.MetaTags,
		IdempotencyKey: c.GetHeader("Idempotency-Key"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusCreated
	if res.Replayed {
		status = http.StatusOK
	}
	response.Success(c, status, gin.H{"poll": res.Poll, "points": res.RemainingPoints}, "poll created", gin.H{"replayed": res.Replayed})
}

func (h *PollHandler) List(c *gin.Context) {
	polls, err := h.Svc.ListPolls(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, polls, "polls", gin.H{"count": len(polls)})
}

func (h *PollHandler) Get(c *gin.Context) {
	p, err := h.Svc.GetPoll(c.Request.Context(), c.Param("pollId"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, p, "poll", nil)
}

func (h *PollHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	docs, err := h.Svc.SearchPolls(c.Request.Context(), q, size)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, docs, "search results", gin.H{"count": len(docs)})
}

func (h *PollHandler) Vote(c *gin.Context) {
	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "option, userId, and pollId are required", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.Vote(c.Request.Context(), req.UserID, req.PollID, req.Option)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"poll": res.Poll, "points": res.Points}, "vote recorded", nil)
}
