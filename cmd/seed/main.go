package main

import (
	"context"
	"errors"
	"log"
	"time"

	"classroombooking/internal/config"
	"classroombooking/internal/database"
	"classroombooking/internal/domain"
	"classroombooking/internal/domain/booking"
	"classroombooking/internal/pkg/jwt"
	"classroombooking/internal/repository"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL, database.Options{Debug: cfg.DBDebug})
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	defer func() { _ = database.Close(db) }()

	if err := database.Migrate(db); err != nil {
		log.Fatal("Migrate failed:", err)
	}

	// Users survive reseeding so tokens issued earlier keep working.
	log.Println("Cleaning old data...")
	for _, table := range []string{"bookings", "classrooms"} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s: %v", table, err)
		}
	}

	ctx := context.Background()

	// ================== USERS ==================
	log.Println("Creating users...")
	users := repository.NewUserRepository(db)
	adminID := ensureUser(ctx, users, "admin@school.local", "admin123", "Administrator", domain.RoleAdmin)
	teacherID := ensureUser(ctx, users, "teacher@school.local", "teacher123", "Teacher One", domain.RoleUser)
	log.Printf("users ready admin_id=%d teacher_id=%d", adminID, teacherID)

	// Login lives in another service; these let a developer call the API directly.
	tokens := jwt.New(cfg.JWTSecret, cfg.JWTAccessTTL)
	for id, role := range map[int64]domain.UserRole{adminID: domain.RoleAdmin, teacherID: domain.RoleUser} {
		tok, err := tokens.Issue(id, string(role))
		if err != nil {
			log.Fatalf("issue dev token: %v", err)
		}
		log.Printf("dev token user_id=%d role=%s token=%s", id, role, tok)
	}

	// ================== CLASSROOMS ==================
	log.Println("Creating classrooms...")
	classrooms := repository.NewClassroomRepository(db)
	rooms := []domain.Classroom{
		{Name: "Lecture Hall A", Code: "A101", Capacity: 120, Building: "Main", IsActive: true},
		{Name: "Seminar Room B", Code: "B204", Capacity: 30, Building: "Main", IsActive: true},
		{Name: "Old Lab C", Code: "C001", Capacity: 20, Building: "Annex", Description: "Closed for renovation", IsActive: false},
	}
	for i := range rooms {
		if err := classrooms.Create(ctx, &rooms[i]); err != nil {
			log.Fatalf("create classroom %s: %v", rooms[i].Code, err)
		}
	}

	// ================== BOOKINGS ==================
	// Bookings go through the service so the overlap rule applies to seed data too.
	log.Println("Creating bookings...")
	svc := booking.NewService(booking.NewStore(db, cfg.WriteTimeout), classrooms, users)

	day := time.Now().UTC().AddDate(0, 0, 1).Format("2006-01-02")
	samples := []struct {
		userID      int64
		classroomID int64
		start, end  string
		subject     string
		status      string
	}{
		{teacherID, rooms[0].ID, "09:00", "10:30", "Linear Algebra", ""},
		{teacherID, rooms[0].ID, "10:30", "12:00", "Calculus", ""},
		{adminID, rooms[1].ID, "13:00", "14:00", "Staff meeting", "pending"},
		// Overlaps the first booking; expected to be rejected.
		{adminID, rooms[0].ID, "10:00", "11:00", "Double booked", ""},
	}
	for _, s := range samples {
		date, start, end := day, s.start, s.end
		b, err := svc.CreateBooking(ctx, s.userID, booking.CreateBookingRequest{
			ClassroomID: s.classroomID,
			TimeInput:   booking.TimeInput{BookingDate: &date, StartTime: &start, EndTime: &end},
			Subject:     s.subject,
			Status:      s.status,
		})
		var overlap *booking.OverlapError
		switch {
		case errors.As(err, &overlap):
			log.Printf("seed booking rejected as expected subject=%q conflicts=%d", s.subject, len(overlap.Conflicts))
		case err != nil:
			log.Fatalf("seed booking %q: %v", s.subject, err)
		default:
			log.Printf("booking created id=%d range=%s status=%s", b.ID, b.TimeRange, b.Status)
		}
	}

	log.Println("Seed completed")
}

// ensureUser returns the id of the user with email, creating it when missing.
func ensureUser(ctx context.Context, users *repository.UserRepository, email, password, name string, role domain.UserRole) int64 {
	existing, err := users.GetByEmail(ctx, email)
	if err == nil {
		log.Printf("user exists: %s (id=%d)", existing.Email, existing.ID)
		return existing.ID
	}
	if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("lookup user %s: %v", email, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal(err)
	}
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     name,
		Role:         role,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("create user %s: %v", email, err)
	}
	log.Printf("user created: %s / %s", email, password)
	return u.ID
}
