package employee

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	FullName       string    `gorm:"type:varchar(150);not null"`
	Email          string    `gorm:"type:varchar(150);uniqueIndex"`
	EmployeeNumber string    `gorm:"type:varchar(20);uniqueIndex"`
	Phone          string    `gorm:"type:varchar(30)"`
	HireDate       time.Time `gorm:"type:date"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_employees_deleted_at"`
}
