package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/erp/internal/apperr"
	"github.com/suteetoe/erp/internal/model"
	"gorm.io/gorm"
)

func (h *Handler) ListProjects(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var projects []model.Project
	err = h.DB.WithContext(c.Request().Context()).
		Preload("Tasks").
		Where("company_id = ?", tc.CompanyID).
		Order("id").
		Find(&projects).Error
	if err != nil {
		return respondError(c, apperr.Internal(err, "failed to list projects"))
	}
	return c.JSON(http.StatusOK, echo.Map{"projects": projects})
}

func (h *Handler) CreateProject(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return respondError(c, apperr.InvalidRequest("name is required"))
	}

	project := model.Project{CompanyID: tc.CompanyID, Name: strings.TrimSpace(req.Name), Description: req.Description, Active: true}
	if err := h.DB.WithContext(c.Request().Context()).Create(&project).Error; err != nil {
		return respondError(c, apperr.Internal(err, "project creation failed"))
	}
	return c.JSON(http.StatusCreated, project)
}

func (h *Handler) CreateTask(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	var req struct {
		Name string `json:"name"`
	}
	if err := bind(c, &req); err != nil {
		return respondError(c, err)
	}
	if strings.TrimSpace(req.Name) == "" {
		return respondError(c, apperr.InvalidRequest("name is required"))
	}

	var project model.Project
	err = h.DB.WithContext(c.Request().Context()).Where("company_id = ?", tc.CompanyID).First(&project, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return respondError(c, apperr.NotFound("project %d not found", projectID))
	}
	if err != nil {
		return respondError(c, apperr.Internal(err, "failed to load project"))
	}

	task := model.Task{ProjectID: project.ID, Name: strings.TrimSpace(req.Name)}
	if err := h.DB.WithContext(c.Request().Context()).Create(&task).Error; err != nil {
		return respondError(c, apperr.Internal(err, "task creation failed"))
	}
	return c.JSON(http.StatusCreated, task)
}

// ProjectCost sums attendance cost of a project, optionally between days
func (h *Handler) ProjectCost(c echo.Context) error {
	tc, err := tenantContext(c)
	if err != nil {
		return respondError(c, err)
	}
	projectID, err := paramID(c, "id")
	if err != nil {
		return respondError(c, err)
	}
	from, err := queryDay(c, "from")
	if err != nil {
		return respondError(c, err)
	}
	to, err := queryDay(c, "to")
	if err != nil {
		return respondError(c, err)
	}

	cost, err := h.Attendance.ProjectCost(c.Request().Context(), tc, projectID, from, to)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, cost)
}
