package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// DayLayout is the storage format of the attendance day bucket
const DayLayout = "2006-01-02"

// Attendance is one check-in/check-out session. For a given user, company
// and day at most one row may have a nil CheckOut.
type Attendance struct {
	ID         uint                `json:"id" gorm:"primaryKey"`
	UserID     uint                `json:"userId" gorm:"not null;index;uniqueIndex:idx_attendance_open,where:check_out IS NULL"`
	CompanyID  uint                `json:"companyId" gorm:"not null;index;uniqueIndex:idx_attendance_open"`
	Day        string              `json:"day" gorm:"type:varchar(10);not null;index;uniqueIndex:idx_attendance_open"`
	CheckIn    time.Time           `json:"checkIn" gorm:"not null"`
	CheckOut   *time.Time          `json:"checkOut"`
	HourlyRate decimal.NullDecimal `json:"hourlyRate" gorm:"type:numeric(12,2)"`
	ProjectID  *uint               `json:"projectId,omitempty" gorm:"index"`
	TaskID     *uint               `json:"taskId,omitempty"`
	Notes      string              `json:"notes" gorm:"type:text"`
	CreatedAt  time.Time           `json:"createdAt"`
	UpdatedAt  time.Time           `json:"updatedAt"`
}

// IsOpen reports whether the session has not been checked out yet
func (a *Attendance) IsOpen() bool {
	return a.CheckOut == nil
}

// Hours is the worked duration in hours, zero while open
func (a *Attendance) Hours() decimal.Decimal {
	if a.CheckOut == nil {
		return decimal.Zero
	}
	return decimal.NewFromFloat(a.CheckOut.Sub(a.CheckIn).Hours())
}

// Cost is hours times the rate captured at check-in. Zero while open or
// when no rate was captured.
func (a *Attendance) Cost() decimal.Decimal {
	if a.CheckOut == nil || !a.HourlyRate.Valid {
		return decimal.Zero
	}
	return a.Hours().Mul(a.HourlyRate.Decimal)
}
