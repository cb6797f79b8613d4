package database

import "time"

// Row models. Repositories map them to and from internal/domain entities.

type UserRow struct {
	ID           int64     `gorm:"column:id;primaryKey"`
	Email        string    `gorm:"column:email;size:255;not null;uniqueIndex"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	FullName     string    `gorm:"column:full_name;size:200"`
	Role         string    `gorm:"column:role;size:20;not null;default:user"`
	IsActive     bool      `gorm:"column:is_active;not null"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (UserRow) TableName() string { return "users" }

type ClassroomRow struct {
	ID          int64     `gorm:"column:id;primaryKey"`
	Name        string    `gorm:"column:name;size:100;not null;uniqueIndex"`
	Code        string    `gorm:"column:code;size:20;not null;uniqueIndex"`
	Capacity    int       `gorm:"column:capacity;not null"`
	Building    *string   `gorm:"column:building;size:100"`
	Description *string   `gorm:"column:description;type:text"`
	IsActive    bool      `gorm:"column:is_active;not null"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (ClassroomRow) TableName() string { return "classrooms" }

type BookingRow struct {
	ID               int64      `gorm:"column:id;primaryKey"`
	ClassroomID      int64      `gorm:"column:classroom_id;not null;index:idx_bookings_classroom_time,priority:1"`
	UserID           int64      `gorm:"column:user_id;not null;index:idx_bookings_user_time,priority:1"`
	StartTime        time.Time  `gorm:"column:start_time;not null;check:chk_bookings_time_order,start_time < end_time;index:idx_bookings_classroom_time,priority:2;index:idx_bookings_user_time,priority:2"`
	EndTime          time.Time  `gorm:"column:end_time;not null;index:idx_bookings_classroom_time,priority:3"`
	Subject          *string    `gorm:"column:subject;size:200"`
	Description      *string    `gorm:"column:description;type:text"`
	IsRecurring      bool       `gorm:"column:is_recurring;not null"`
	RecurringPattern *string    `gorm:"column:recurring_pattern;size:50"`
	RecurringEndDate *time.Time `gorm:"column:recurring_end_date"`
	Status           string     `gorm:"column:status;size:20;not null;default:confirmed;index"`
	CreatedAt        time.Time  `gorm:"column:created_at"`
	UpdatedAt        time.Time  `gorm:"column:updated_at"`

	Classroom *ClassroomRow `gorm:"foreignKey:ClassroomID;constraint:OnDelete:CASCADE"`
	User      *UserRow      `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

func (BookingRow) TableName() string { return "bookings" }
