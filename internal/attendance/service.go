// Package attendance enforces the check-in/check-out session rules: at most
// one open session per principal, company and day.
package attendance

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"github.com/suteetoe/erp/internal/tenant"
	"github.com/suteetoe/erp/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// CheckInInput carries the optional links of a new session
type CheckInInput struct {
	ProjectID *uint  `json:"projectId"`
	TaskID    *uint  `json:"taskId"`
	Notes     string `json:"notes"`
}

// Update is an administrative correction. Nil fields are left untouched.
type Update struct {
	CheckIn    *time.Time       `json:"checkIn"`
	CheckOut   *time.Time       `json:"checkOut"`
	Reopen     bool             `json:"reopen"`
	HourlyRate *decimal.Decimal `json:"hourlyRate"`
	ProjectID  *uint            `json:"projectId"`
	TaskID     *uint            `json:"taskId"`
	Notes      *string          `json:"notes"`
}

// Filter narrows List results. From and To are inclusive days (YYYY-MM-DD).
type Filter struct {
	UserID    *uint
	ProjectID *uint
	From      string
	To        string
}

// Session is an attendance row with its derived figures
type Session struct {
	model.Attendance
	Hours decimal.Decimal `json:"hours"`
	Cost  decimal.Decimal `json:"cost"`
}

// ProjectCost aggregates closed sessions of a project
type ProjectCost struct {
	ProjectID uint            `json:"projectId"`
	Sessions  int             `json:"sessions"`
	Hours     decimal.Decimal `json:"hours"`
	Cost      decimal.Decimal `json:"cost"`
}

// Service implements the attendance state machine
type Service struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
	log *zap.Logger
}

// NewService creates an attendance service bucketing days in loc
func NewService(db *gorm.DB, loc *time.Location, log *zap.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{db: db, loc: loc, now: time.Now, log: log}
}

// WithClock replaces the time source
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Day returns the day bucket of t
func (s *Service) Day(t time.Time) string {
	return t.In(s.loc).Format(model.DayLayout)
}

// CheckIn opens a new session for the principal. Fails with Conflict while
// another session of the same day is still open.
func (s *Service) CheckIn(ctx context.Context, tc tenant.Context, in CheckInInput) (*model.Attendance, error) {
	if err := s.checkLinks(ctx, tc, in.ProjectID, in.TaskID); err != nil {
		prometheus.RecordAttendance("check_in", "rejected")
		return nil, err
	}

	now := s.now()
	a := &model.Attendance{
		UserID:    tc.PrincipalID,
		CompanyID: tc.CompanyID,
		Day:       s.Day(now),
		CheckIn:   now,
		ProjectID: in.ProjectID,
		TaskID:    in.TaskID,
		Notes:     strings.TrimSpace(in.Notes),
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open int64
		if err := s.openSessions(tx, a.UserID, a.CompanyID, a.Day).Count(&open).Error; err != nil {
			return err
		}
		if open > 0 {
			return apperr.Conflict("must check out before checking in again")
		}

		// the rate is copied so later changes leave this session's cost alone
		var user model.User
		if err := tx.Select("id", "hourly_rate").First(&user, tc.PrincipalID).Error; err != nil {
			return err
		}
		a.HourlyRate = user.HourlyRate

		return tx.Create(a).Error
	})
	if err != nil {
		prometheus.RecordAttendance("check_in", "rejected")
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("must check out before checking in again")
		}
		return nil, classify(err, "failed to check in")
	}

	prometheus.RecordAttendance("check_in", "ok")
	s.log.Info("Checked in",
		zap.Uint("attendance_id", a.ID),
		zap.Uint("user_id", a.UserID),
		zap.Uint("company_id", a.CompanyID),
		zap.String("day", a.Day))
	return a, nil
}

// CheckOut closes today's open session. Notes are appended on a new line.
// Only today's bucket is searched: a session left open past midnight is not
// found here and can only be closed by an admin through Update.
func (s *Service) CheckOut(ctx context.Context, tc tenant.Context, notes string) (*model.Attendance, error) {
	now := s.now()
	day := s.Day(now)

	var a model.Attendance
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var open []model.Attendance
		if err := s.openSessions(tx, tc.PrincipalID, tc.CompanyID, day).Find(&open).Error; err != nil {
			return err
		}
		if len(open) != 1 {
			return apperr.NotFound("no pending check-in")
		}
		a = open[0]

		a.CheckOut = &now
		a.Notes = appendNote(a.Notes, notes)
		return tx.Model(&a).Updates(map[string]interface{}{
			"check_out": a.CheckOut,
			"notes":     a.Notes,
		}).Error
	})
	if err != nil {
		prometheus.RecordAttendance("check_out", "rejected")
		return nil, classify(err, "failed to check out")
	}

	prometheus.RecordAttendance("check_out", "ok")
	s.log.Info("Checked out",
		zap.Uint("attendance_id", a.ID),
		zap.Uint("user_id", a.UserID),
		zap.String("hours", a.Hours().StringFixed(2)))
	return &a, nil
}

// Update applies an administrative correction. The open-session guard is
// not applied.
func (s *Service) Update(ctx context.Context, tc tenant.Context, id uint, in Update) (*model.Attendance, error) {
	if !tc.IsAdmin() {
		return nil, apperr.Forbidden("only owners and admins can edit attendance")
	}
	a, err := s.get(ctx, tc, id)
	if err != nil {
		return nil, err
	}

	if in.CheckIn != nil {
		a.CheckIn = *in.CheckIn
		a.Day = s.Day(*in.CheckIn)
	}
	if in.Reopen {
		a.CheckOut = nil
	} else if in.CheckOut != nil {
		a.CheckOut = in.CheckOut
	}
	if a.CheckOut != nil && a.CheckOut.Before(a.CheckIn) {
		return nil, apperr.InvalidRequest("checkOut must not be before checkIn")
	}
	if in.HourlyRate != nil {
		a.HourlyRate = decimal.NewNullDecimal(*in.HourlyRate)
	}
	if in.ProjectID != nil {
		a.ProjectID = in.ProjectID
	}
	if in.TaskID != nil {
		a.TaskID = in.TaskID
	}
	if in.ProjectID != nil || in.TaskID != nil {
		if err := s.checkLinks(ctx, tc, a.ProjectID, a.TaskID); err != nil {
			return nil, err
		}
	}
	if in.Notes != nil {
		a.Notes = *in.Notes
	}

	if err := s.db.WithContext(ctx).Save(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflict("another session is already open for that day")
		}
		return nil, apperr.Internal(err, "failed to update attendance")
	}
	s.log.Info("Attendance corrected", zap.Uint("attendance_id", a.ID), zap.Uint("by", tc.PrincipalID))
	return a, nil
}

// Delete removes a session. Administrative only.
func (s *Service) Delete(ctx context.Context, tc tenant.Context, id uint) error {
	if !tc.IsAdmin() {
		return apperr.Forbidden("only owners and admins can delete attendance")
	}
	a, err := s.get(ctx, tc, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(a).Error; err != nil {
		return apperr.Internal(err, "failed to delete attendance")
	}
	s.log.Info("Attendance deleted", zap.Uint("attendance_id", a.ID), zap.Uint("by", tc.PrincipalID))
	return nil
}

// List returns sessions of the company with cost computed on read. Members
// only see their own sessions.
func (s *Service) List(ctx context.Context, tc tenant.Context, f Filter) ([]Session, error) {
	q := s.db.WithContext(ctx).Where("company_id = ?", tc.CompanyID)
	if !tc.IsAdmin() {
		q = q.Where("user_id = ?", tc.PrincipalID)
	} else if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.ProjectID != nil {
		q = q.Where("project_id = ?", *f.ProjectID)
	}
	if f.From != "" {
		q = q.Where("day >= ?", f.From)
	}
	if f.To != "" {
		q = q.Where("day <= ?", f.To)
	}

	var rows []model.Attendance
	if err := q.Order("check_in desc").Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err, "failed to list attendance")
	}

	sessions := make([]Session, len(rows))
	for i, a := range rows {
		sessions[i] = Session{Attendance: a, Hours: a.Hours(), Cost: a.Cost()}
	}
	return sessions, nil
}

// ProjectCost sums the cost of every session linked to the project
func (s *Service) ProjectCost(ctx context.Context, tc tenant.Context, projectID uint, from, to string) (*ProjectCost, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&model.Project{}).
		Where("id = ? AND company_id = ?", projectID, tc.CompanyID).
		Count(&n).Error
	if err != nil {
		return nil, apperr.Internal(err, "failed to load project")
	}
	if n == 0 {
		return nil, apperr.NotFound("project %d not found", projectID)
	}

	q := s.db.WithContext(ctx).Where("company_id = ? AND project_id = ?", tc.CompanyID, projectID)
	if from != "" {
		q = q.Where("day >= ?", from)
	}
	if to != "" {
		q = q.Where("day <= ?", to)
	}
	var rows []model.Attendance
	if err := q.Find(&rows).Error; err != nil {
		return nil, apperr.Internal(err, "failed to load attendance")
	}

	out := &ProjectCost{ProjectID: projectID, Hours: decimal.Zero, Cost: decimal.Zero}
	for _, a := range rows {
		out.Sessions++
		out.Hours = out.Hours.Add(a.Hours())
		out.Cost = out.Cost.Add(a.Cost())
	}
	return out, nil
}

// PrincipalForToken resolves the principal behind a public attendance token
func (s *Service) PrincipalForToken(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, apperr.Unauthorized("attendance token required")
	}
	var user model.User
	err := s.db.WithContext(ctx).Where("attendance_token = ?", token).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.Unauthorized("invalid attendance token")
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load principal")
	}
	if !user.Active {
		return nil, apperr.Unauthorized("principal is disabled")
	}
	return &user, nil
}

func (s *Service) openSessions(tx *gorm.DB, userID, companyID uint, day string) *gorm.DB {
	return tx.Model(&model.Attendance{}).
		Where("user_id = ? AND company_id = ? AND day = ? AND check_out IS NULL", userID, companyID, day)
}

func (s *Service) get(ctx context.Context, tc tenant.Context, id uint) (*model.Attendance, error) {
	var a model.Attendance
	err := s.db.WithContext(ctx).Where("company_id = ?", tc.CompanyID).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("attendance %d not found", id)
	}
	if err != nil {
		return nil, apperr.Internal(err, "failed to load attendance")
	}
	return &a, nil
}

// checkLinks verifies the project belongs to the company and the task to
// the project
func (s *Service) checkLinks(ctx context.Context, tc tenant.Context, projectID, taskID *uint) error {
	db := s.db.WithContext(ctx)
	if projectID != nil {
		var n int64
		if err := db.Model(&model.Project{}).Where("id = ? AND company_id = ?", *projectID, tc.CompanyID).Count(&n).Error; err != nil {
			return apperr.Internal(err, "failed to load project")
		}
		if n == 0 {
			return apperr.InvalidReference("project %d does not belong to this company", *projectID)
		}
	}
	if taskID != nil {
		if projectID == nil {
			return apperr.InvalidReference("task %d requires a project", *taskID)
		}
		var n int64
		if err := db.Model(&model.Task{}).Where("id = ? AND project_id = ?", *taskID, *projectID).Count(&n).Error; err != nil {
			return apperr.Internal(err, "failed to load task")
		}
		if n == 0 {
			return apperr.InvalidReference("task %d does not belong to project %d", *taskID, *projectID)
		}
	}
	return nil
}

func appendNote(existing, note string) string {
	note = strings.TrimSpace(note)
	switch {
	case note == "":
		return existing
	case existing == "":
		return note
	}
	return existing + "\n" + note
}

func classify(err error, msg string) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return apperr.Internal(err, "%s", msg)
}
