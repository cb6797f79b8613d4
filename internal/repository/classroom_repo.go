package repository

import (
	"context"
	"errors"

	"classroombooking/internal/database"
	"classroombooking/internal/domain"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type ClassroomRepository struct {
	db *gorm.DB
}

func NewClassroomRepository(db *gorm.DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

func toDomainClassroom(m database.ClassroomRow) *domain.Classroom {
	c := &domain.Classroom{
		ID:        m.ID,
		Name:      m.Name,
		Code:      m.Code,
		Capacity:  m.Capacity,
		IsActive:  m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if m.Building != nil {
		c.Building = *m.Building
	}
	if m.Description != nil {
		c.Description = *m.Description
	}
	return c
}

func toClassroomRow(c *domain.Classroom) database.ClassroomRow {
	row := database.ClassroomRow{
		ID:        c.ID,
		Name:      c.Name,
		Code:      c.Code,
		Capacity:  c.Capacity,
		IsActive:  c.IsActive,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
	if c.Building != "" {
		v := c.Building
		row.Building = &v
	}
	if c.Description != "" {
		v := c.Description
		row.Description = &v
	}
	return row
}

// GetByID returns ErrNotFound when no classroom has the id.
func (r *ClassroomRepository) GetByID(ctx context.Context, id int64) (*domain.Classroom, error) {
	var m database.ClassroomRow
	err := r.db.WithContext(ctx).First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainClassroom(m), nil
}

func (r *ClassroomRepository) Create(ctx context.Context, c *domain.Classroom) error {
	m := toClassroomRow(c)
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return err
	}
	*c = *toDomainClassroom(m)
	return nil
}

// SetActive opens or closes a classroom for new reservations. Existing
// bookings are left untouched.
func (r *ClassroomRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tx := r.db.WithContext(ctx).
		Model(&database.ClassroomRow{}).
		Where("id = ?", id).
		Update("is_active", active)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
