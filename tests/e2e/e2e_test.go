package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"classroombooking/internal/database/dbtest"
	"classroombooking/internal/domain"
	"classroombooking/internal/domain/booking"
	"classroombooking/internal/middleware"
	jwtsvc "classroombooking/internal/pkg/jwt"
	"classroombooking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type E2ETestSuite struct {
	router     *gin.Engine
	db         *gorm.DB
	jwtService *jwtsvc.Service

	classroomID int64
	teacherID   int64
	otherID     int64
	adminID     int64
}

type TestResponse struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *ErrorDetail           `json:"error,omitempty"`
}

type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func setupTestSuite(t *testing.T) *E2ETestSuite {
	db := dbtest.Open(t)

	jwtService := jwtsvc.New("test_secret_key_32_characters_min", 24*time.Hour)

	classroomRepo := repository.NewClassroomRepository(db)
	bookingService := booking.NewService(booking.NewStore(db, 5*time.Second), classroomRepo, repository.NewUserRepository(db))
	bookingHandler := booking.NewHandler(bookingService)

	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestID(), middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	protected := v1.Group("")
	protected.Use(middleware.JWTAuth(jwtService), middleware.RequireRole(domain.RoleUser, domain.RoleAdmin))
	{
		bookingHandler.RegisterRoutes(protected)
	}

	users := repository.NewUserRepository(db)
	create := func(email string, role domain.UserRole) int64 {
		u := &domain.User{Email: email, PasswordHash: "$2a$10$dummy", FullName: email, Role: role, IsActive: true}
		require.NoError(t, users.Create(t.Context(), u), "Failed to create user")
		return u.ID
	}

	return &E2ETestSuite{
		router:      r,
		db:          db,
		jwtService:  jwtService,
		classroomID: dbtest.SeedClassroom(t, db, "A101", true),
		teacherID:   create("teacher@test.com", domain.RoleUser),
		otherID:     create("other@test.com", domain.RoleUser),
		adminID:     create("admin@test.com", domain.RoleAdmin),
	}
}

func (s *E2ETestSuite) token(t *testing.T, userID int64, role domain.UserRole) string {
	tok, err := s.jwtService.Issue(userID, string(role))
	require.NoError(t, err)
	return tok
}

func (s *E2ETestSuite) makeRequest(method, path string, body interface{}, token string) (*httptest.ResponseRecorder, error) {
	var bodyBytes []byte
	var err error

	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, err
		}
	}

	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	return w, nil
}

func parseResponse(w *httptest.ResponseRecorder) (*TestResponse, error) {
	var resp TestResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	if err != nil {
		log.Printf("Failed to parse response. Status: %d, Body: %s", w.Code, w.Body.String())
	}
	return &resp, err
}

func logErrorResponse(t *testing.T, resp *TestResponse, context string) {
	if resp.Error != nil {
		t.Logf("%s - Error: [%s] %s", context, resp.Error.Code, resp.Error.Message)
		if resp.Error.Details != nil {
			t.Logf("  Details: %+v", resp.Error.Details)
		}
	}
}

func (s *E2ETestSuite) bookingBody(startHour, endHour int) map[string]interface{} {
	return map[string]interface{}{
		"classroom_id":   s.classroomID,
		"start_datetime": fmt.Sprintf("2030-03-04T%02d:00:00Z", startHour),
		"end_datetime":   fmt.Sprintf("2030-03-04T%02d:00:00Z", endHour),
		"subject":        "Physics",
	}
}

// =============================================================================
// Flow 1: Authentication
// =============================================================================

func TestFlow1_Authentication(t *testing.T) {
	suite := setupTestSuite(t)

	t.Run("missing token", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/bookings", nil, "")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.False(t, resp.Success)
		assert.Equal(t, "AUTH_HEADER_MISSING", resp.Error.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/bookings", nil, "not-a-jwt")
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "INVALID_TOKEN", resp.Error.Code)
	})

	t.Run("unknown role", func(t *testing.T) {
		tok, err := suite.jwtService.Issue(suite.teacherID, "guest")
		require.NoError(t, err)

		w, err := suite.makeRequest("GET", "/api/v1/bookings", nil, tok)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		w, err := suite.makeRequest("GET", "/api/v1/bookings", nil, suite.token(t, suite.teacherID, domain.RoleUser))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})
}

// =============================================================================
// Flow 2: Booking lifecycle
// =============================================================================

func TestFlow2_BookingLifecycle(t *testing.T) {
	suite := setupTestSuite(t)
	teacher := suite.token(t, suite.teacherID, domain.RoleUser)
	other := suite.token(t, suite.otherID, domain.RoleUser)
	admin := suite.token(t, suite.adminID, domain.RoleAdmin)

	var bookingID int64

	t.Run("POST /bookings", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/bookings", suite.bookingBody(9, 10), teacher)
		require.NoError(t, err)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		resp, err := parseResponse(w)
		require.NoError(t, err)
		if !resp.Success {
			logErrorResponse(t, resp, "Create booking failed")
		}
		assert.Equal(t, "confirmed", resp.Data["status"])
		assert.Equal(t, float64(suite.teacherID), resp.Data["user_id"])
		bookingID = int64(resp.Data["id"].(float64))
	})

	t.Run("overlapping booking is rejected", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/bookings", suite.bookingBody(9, 11), other)
		require.NoError(t, err)
		assert.Equal(t, http.StatusConflict, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "BOOKING_CONFLICT", resp.Error.Code)
		conflicts, ok := resp.Error.Details["conflicts"].([]interface{})
		require.True(t, ok)
		require.Len(t, conflicts, 1)
		assert.Equal(t, float64(bookingID), conflicts[0].(map[string]interface{})["booking_id"])
	})

	t.Run("adjacent booking is accepted", func(t *testing.T) {
		w, err := suite.makeRequest("POST", "/api/v1/bookings", suite.bookingBody(10, 11), other)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("other user cannot cancel", func(t *testing.T) {
		w, err := suite.makeRequest("PATCH", fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), nil, other)
		require.NoError(t, err)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("availability reports the conflict", func(t *testing.T) {
		body := suite.bookingBody(9, 10)
		delete(body, "subject")
		w, err := suite.makeRequest("POST", "/api/v1/bookings/check-availability", body, other)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, false, resp.Data["is_available"])
	})

	t.Run("cancel frees the slot", func(t *testing.T) {
		w, err := suite.makeRequest("PATCH", fmt.Sprintf("/api/v1/bookings/%d/cancel", bookingID), nil, teacher)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, w.Code)

		resp, err := parseResponse(w)
		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Data["status"])

		w, err = suite.makeRequest("POST", "/api/v1/bookings", suite.bookingBody(9, 10), other)
		require.NoError(t, err)
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("admin can delete any booking", func(t *testing.T) {
		w, err := suite.makeRequest("DELETE", fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, admin)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, w.Code)

		w, err = suite.makeRequest("GET", fmt.Sprintf("/api/v1/bookings/%d", bookingID), nil, admin)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

// =============================================================================
// Flow 3: Concurrent requests for the same slot
// =============================================================================

func TestFlow3_ConcurrentCreates(t *testing.T) {
	suite := setupTestSuite(t)
	tokens := []string{
		suite.token(t, suite.teacherID, domain.RoleUser),
		suite.token(t, suite.otherID, domain.RoleUser),
		suite.token(t, suite.adminID, domain.RoleAdmin),
	}

	const workers = 12
	codes := make([]int, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			w, err := suite.makeRequest("POST", "/api/v1/bookings", suite.bookingBody(14, 15), tokens[i%len(tokens)])
			if err == nil {
				codes[i] = w.Code
			}
		}(i)
	}
	wg.Wait()

	created, conflicted := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
			conflicted++
		}
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, conflicted)

	var confirmed int64
	require.NoError(t, suite.db.Table("bookings").Where("status = ?", "confirmed").Count(&confirmed).Error)
	assert.Equal(t, int64(1), confirmed)
}

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}
