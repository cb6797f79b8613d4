package booking

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"classroombooking/internal/domain"
	"classroombooking/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// caller is the authenticated identity set by the JWT middleware.
type caller struct {
	userID int64
	role   string
}

func (c caller) isAdmin() bool { return c.role == string(domain.RoleAdmin) }

func (c caller) canAccess(b *domain.Booking) bool {
	return c.isAdmin() || b.UserID == c.userID
}

func currentCaller(c *gin.Context) (caller, bool) {
	userID := c.GetInt64("user_id")
	if userID == 0 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
		return caller{}, false
	}
	return caller{userID: userID, role: c.GetString("role")}, true
}

func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name)
		return 0, false
	}
	return id, true
}

// writeError maps booking errors to HTTP responses.
func writeError(c *gin.Context, err error) {
	var (
		verr    *ValidationError
		overlap *OverlapError
	)
	switch {
	case errors.As(err, &overlap):
		response.ErrorWithDetails(c, http.StatusConflict, "BOOKING_CONFLICT", overlap.Error(), gin.H{
			"classroom_id":   overlap.ClassroomID,
			"start_datetime": overlap.Range.Start(),
			"end_datetime":   overlap.Range.End(),
			"conflicts":      conflictsOrEmpty(overlap.Conflicts),
		})
	case errors.As(err, &verr):
		if len(verr.Fields) > 0 {
			response.ErrorWithDetails(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message, verr.Fields)
			return
		}
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", verr.Message)
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrClassroomNotFound):
		response.Error(c, http.StatusNotFound, "CLASSROOM_NOT_FOUND", "Classroom not found")
	case errors.Is(err, ErrUserNotFound):
		response.Error(c, http.StatusNotFound, "USER_NOT_FOUND", "User not found")
	case errors.Is(err, ErrUserInactive):
		response.Error(c, http.StatusForbidden, "USER_INACTIVE", "User account is disabled")
	case errors.Is(err, ErrClassroomInactive):
		response.Error(c, http.StatusUnprocessableEntity, "CLASSROOM_INACTIVE", "Classroom is not active")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrStorageUnavailable):
		_ = c.Error(err)
		response.Error(c, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Storage temporarily unavailable, retry the request")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
	}
}

func conflictsOrEmpty(list []Conflict) []Conflict {
	if list == nil {
		return []Conflict{}
	}
	return list
}

// loadOwned fetches the booking and checks the caller may act on it.
func (h *Handler) loadOwned(ctx context.Context, who caller, id int64) (*domain.Booking, error) {
	b, err := h.service.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !who.canAccess(b) {
		return nil, ErrForbidden
	}
	return b, nil
}

func (h *Handler) ListBookings(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}

	var f ListFilter
	if err := c.ShouldBindQuery(&f); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid query parameters")
		return
	}
	if !who.isAdmin() {
		if f.UserID != 0 && f.UserID != who.userID {
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Cannot list other users' bookings")
			return
		}
		f.UserID = who.userID
	}

	list, err := h.service.ListBookings(c.Request.Context(), f)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewBookingResponses(list))
}

func (h *Handler) GetBooking(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	b, err := h.loadOwned(c.Request.Context(), who, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) CreateBooking(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), who.userID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, NewBookingResponse(b))
}

func (h *Handler) UpdateBooking(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.loadOwned(ctx, who, id); err != nil {
		writeError(c, err)
		return
	}
	b, err := h.service.UpdateBooking(ctx, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) ConfirmBooking(c *gin.Context) {
	h.transition(c, h.service.ConfirmBooking)
}

func (h *Handler) CancelBooking(c *gin.Context) {
	h.transition(c, h.service.CancelBooking)
}

func (h *Handler) transition(c *gin.Context, apply func(context.Context, int64) (*domain.Booking, error)) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.loadOwned(ctx, who, id); err != nil {
		writeError(c, err)
		return
	}
	b, err := apply(ctx, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewBookingResponse(b))
}

func (h *Handler) DeleteBooking(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if _, err := h.loadOwned(ctx, who, id); err != nil {
		writeError(c, err)
		return
	}
	if err := h.service.DeleteBooking(ctx, id); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"id": id, "deleted": true})
}

func (h *Handler) CheckAvailability(c *gin.Context) {
	if _, ok := currentCaller(c); !ok {
		return
	}

	var req AvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	res, err := h.service.CheckAvailability(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) ListUserBookings(c *gin.Context) {
	who, ok := currentCaller(c)
	if !ok {
		return
	}
	userID, ok := parseIDParam(c, "user_id")
	if !ok {
		return
	}
	if !who.isAdmin() && userID != who.userID {
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Cannot list other users' bookings")
		return
	}

	list, err := h.service.ListUserBookings(c.Request.Context(), userID, c.Query("start_date"), c.Query("end_date"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewBookingResponses(list))
}

func (h *Handler) ListClassroomBookingsOnDate(c *gin.Context) {
	if _, ok := currentCaller(c); !ok {
		return
	}
	classroomID, ok := parseIDParam(c, "classroom_id")
	if !ok {
		return
	}

	list, err := h.service.ListClassroomBookingsOnDate(c.Request.Context(), classroomID, c.Param("date"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, NewBookingResponses(list))
}
