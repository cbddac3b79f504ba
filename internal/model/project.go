package model

import (
	"time"

	"gorm.io/gorm"
)

// Project groups tasks and attendance within a company
type Project struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	CompanyID   uint           `json:"companyId" gorm:"index;not null"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Description string         `json:"description" gorm:"type:text"`
	Active      bool           `json:"active" gorm:"not null;default:true"`
	Tasks       []Task         `json:"tasks,omitempty" gorm:"foreignKey:ProjectID"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`
}

// Task belongs to exactly one project
type Task struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	ProjectID uint           `json:"projectId" gorm:"index;not null"`
	Name      string         `json:"name" gorm:"type:varchar(255);not null"`
	Done      bool           `json:"done" gorm:"not null;default:false"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
