package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dori/zenith/internal/model"
)

const dateLayout = "2006-01-02"

// CreateTaskRequest is the body of POST /api/tasks
type CreateTaskRequest struct {
	Text      string  `json:"text" validate:"required,max=500"`
	Date      string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	SubjectID *string `json:"subjectId"`
}

// UpdateTaskRequest is the body of PATCH /api/tasks/:id
type UpdateTaskRequest struct {
	Text         *string `json:"text" validate:"omitempty,max=500"`
	Date         string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	ClearDate    bool    `json:"clearDate"`
	SubjectID    *string `json:"subjectId"`
	ClearSubject bool    `json:"clearSubject"`
}

// parseDay reads a calendar day in local time. Empty input is nil.
func parseDay(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(dateLayout, s, time.Local)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *Server) listTasks(c echo.Context) error {
	tasks := s.services.Store.Tasks()
	switch c.QueryParam("filter") {
	case "pending":
		tasks = filterTasks(tasks, false)
	case "completed":
		tasks = filterTasks(tasks, true)
	case "", "all":
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "filter must be all, pending or completed")
	}
	return c.JSON(http.StatusOK, tasks)
}

func filterTasks(tasks []model.Task, completed bool) []model.Task {
	out := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Completed == completed {
			out = append(out, t)
		}
	}
	return out
}

func (s *Server) getTask(c echo.Context) error {
	task, ok := s.services.Store.Task(c.Param("id"))
	if !ok {
		return notFound("Task")
	}
	return c.JSON(http.StatusOK, task)
}

func (s *Server) createTask(c echo.Context) error {
	var req CreateTaskRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	date, err := parseDay(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date")
	}

	task, err := s.services.Store.AddTask(req.Text, date, req.SubjectID)
	if task == nil && err == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Task text must not be blank")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusCreated, task)
}

func (s *Server) updateTask(c echo.Context) error {
	var req UpdateTaskRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	date, err := parseDay(req.Date)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid date")
	}

	task, err := s.services.Store.EditTask(c.Param("id"), model.TaskPatch{
		Text:         req.Text,
		Date:         date,
		ClearDate:    req.ClearDate,
		SubjectID:    req.SubjectID,
		ClearSubject: req.ClearSubject,
	})
	if task == nil && err == nil {
		return notFound("Task")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusOK, task)
}

func (s *Server) toggleTask(c echo.Context) error {
	task, err := s.services.Store.ToggleTask(c.Param("id"))
	if task == nil && err == nil {
		return notFound("Task")
	}
	s.storeError(c, err)
	return c.JSON(http.StatusOK, task)
}

func (s *Server) deleteTask(c echo.Context) error {
	ok, err := s.services.Store.DeleteTask(c.Param("id"))
	if !ok {
		return notFound("Task")
	}
	s.storeError(c, err)
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) clearCompleted(c echo.Context) error {
	n, err := s.services.Store.ClearCompleted()
	s.storeError(c, err)
	return c.JSON(http.StatusOK, map[string]int{"removed": n})
}
