// Package classroom exposes the classroom records that bookings point at.
// Reads are open to every signed-in user; opening and closing a room for new
// reservations is an admin action.
package classroom

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"classroombooking/internal/domain"
	"classroombooking/internal/pkg/response"
	"classroombooking/internal/pkg/validator"
	"classroombooking/internal/repository"

	"github.com/gin-gonic/gin"
)

// Repository is the subset of repository.ClassroomRepository the handler uses.
type Repository interface {
	GetByID(ctx context.Context, id int64) (*domain.Classroom, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

type Handler struct {
	repo Repository
}

func NewHandler(repo Repository) *Handler {
	return &Handler{repo: repo}
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid classroom id")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "CLASSROOM_NOT_FOUND", "Classroom not found")
		return
	}
	_ = c.Error(err)
	response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
}

func (h *Handler) GetClassroom(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	room, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}

// SetActive closes or reopens a classroom. Existing bookings stay as they
// are; only new bookings and moves into the room are refused while closed.
func (h *Handler) SetActive(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if fields := validator.Validate(req); fields != nil {
		response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", "invalid request", fields)
		return
	}

	ctx := c.Request.Context()
	if err := h.repo.SetActive(ctx, id, *req.IsActive); err != nil {
		writeError(c, err)
		return
	}
	room, err := h.repo.GetByID(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, room)
}
