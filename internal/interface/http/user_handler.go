package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tapvote/internal/application"
	"github.com/oksasatya/tapvote/internal/domain/entity"
	"github.com/oksasatya/tapvote/pkg/response"
	"github.com/oksasatya/tapvote/pkg/validation"
)

const maxAvatarBytes = 5 << 20

type UserHandler struct {
	Svc    *application.EconomyService
	Logger *logrus.Logger
}

func NewUserHandler(svc *application.EconomyService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type signupRequest struct {
	Username string `json:"username" binding:"required"`
	Phone    string `json:"phone" binding:"required"`
	Avatar   string `json:"avatar"`
}

type loginRequest struct {
	Phone string `json:"phone" binding:"required"`
}

type userIDRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// userView is the public JSON shape of a user.
func userView(u *entity.User) gin.H {
	var last *string
	if u.LastClickDate != nil {
		s := u.LastClickDate.Format(time.DateOnly)
		last = &s
	}
	return gin.H{
		"id":             u.ID,
		"username":       u.Username,
		"phone":          u.Phone,
		"points":         u.Points,
		"energy":         u.Energy,
		"tapClicksToday": u.TapClicksToday,
		"lastClickDate":  last,
		"votedPolls":     u.VotedPolls,
		"avatar":         u.Avatar,
		"createdAt":      u.CreatedAt,
		"updatedAt":      u.UpdatedAt,
	}
}

func (h *UserHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Signup(c.Request.Context(), req.Username, req.Phone, req.Avatar)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, userView(u), "signup successful", nil)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Login(c.Request.Context(), req.Phone)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "login successful", nil)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, userView(u), "user", nil)
}

func (h *UserHandler) Tap(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.Tap(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"points":         u.Points,
		"energy":         u.Energy,
		"tapClicksToday": u.TapClicksToday,
	}, "tap counted", nil)
}

func (h *UserHandler) RegenerateEnergy(c *gin.Context) {
	var req userIDRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	energy, err := h.Svc.RegenerateEnergy(c.Request.Context(), req.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"energy": energy}, "energy", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	fh, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	if fh.Size > maxAvatarBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, "avatar too large", gin.H{"max_bytes": maxAvatarBytes})
		return
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), c.Param("userId"), f, fh.Filename, fh.Header.Get("Content-Type"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatar": url}, "avatar updated", nil)
}
