package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dori/zenith/internal/ai"
	"github.com/dori/zenith/internal/calendar"
	"github.com/dori/zenith/internal/model"
)

// ChatRequest is the body of POST /api/ai/chat
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=4000"`
}

// ChatResponse carries the model reply, or the fallback text when the call
// failed
type ChatResponse struct {
	Response string `json:"response"`
	Failed   bool   `json:"failed,omitempty"`
}

// PrioritiesRequest is the body of POST /api/ai/priorities. Empty fields
// are filled from the task list and the timer.
type PrioritiesRequest struct {
	TaskList         string `json:"taskList" validate:"max=20000"`
	CalendarEvents   string `json:"calendarEvents" validate:"max=20000"`
	PomodoroInterval int    `json:"pomodoroInterval" validate:"omitempty,gte=1"`
}

// DurationRequest is the body of POST /api/ai/duration
type DurationRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// DurationResponse is the playlist length
type DurationResponse struct {
	TotalDurationSeconds int    `json:"totalDurationSeconds"`
	Formatted            string `json:"formatted"`
	Failed               bool   `json:"failed,omitempty"`
}

// MonthResponse is the calendar view of one month
type MonthResponse struct {
	Month    string               `json:"month"`
	Title    string               `json:"title"`
	Weeks    [][7]int             `json:"weeks"`
	Days     map[int][]model.Task `json:"days"`
	Upcoming []model.Task         `json:"upcoming"`
}

func (s *Server) assistant() (*ai.Assistant, error) {
	if s.services.Assistant == nil {
		return nil, echo.NewHTTPError(http.StatusServiceUnavailable, "AI assistant is not configured")
	}
	return s.services.Assistant, nil
}

func (s *Server) chat(c echo.Context) error {
	var req ChatRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	a, err := s.assistant()
	if err != nil {
		return err
	}
	reply, err := a.Chat(c.Request().Context(), req.Message)
	return c.JSON(http.StatusOK, ChatResponse{Response: reply, Failed: err != nil})
}

func (s *Server) priorities(c echo.Context) error {
	var req PrioritiesRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	a, err := s.assistant()
	if err != nil {
		return err
	}

	tasks := s.services.Store.Tasks()
	if strings.TrimSpace(req.TaskList) == "" {
		req.TaskList = calendar.TaskListText(tasks)
	}
	if strings.TrimSpace(req.TaskList) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "No tasks to prioritize")
	}
	if strings.TrimSpace(req.CalendarEvents) == "" {
		req.CalendarEvents = calendar.EventsText(tasks, time.Now())
	}
	if req.PomodoroInterval == 0 {
		req.PomodoroInterval = s.services.Timer.Snapshot().Durations.Work
	}

	in := ai.PriorityRequest{
		TaskList:        req.TaskList,
		CalendarEvents:  req.CalendarEvents,
		PomodoroMinutes: req.PomodoroInterval,
	}
	if err := c.Validate(&in); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	suggestion, err := a.SuggestPriorities(c.Request().Context(), in)
	if err != nil {
		c.Response().Header().Set("X-Zenith-Fallback", "1")
	}
	return c.JSON(http.StatusOK, suggestion)
}

func (s *Server) playlistDuration(c echo.Context) error {
	var req DurationRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	a, err := s.assistant()
	if err != nil {
		return err
	}
	seconds, err := a.PlaylistDuration(c.Request().Context(), req.URL)
	return c.JSON(http.StatusOK, DurationResponse{
		TotalDurationSeconds: seconds,
		Formatted:            ai.FormatDuration(seconds),
		Failed:               err != nil,
	})
}

func (s *Server) calendarMonth(c echo.Context) error {
	now := time.Now()
	m := calendar.MonthOf(now)
	if raw := c.QueryParam("month"); raw != "" {
		t, err := time.ParseInLocation("2006-01", raw, time.Local)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "month must look like 2006-01")
		}
		m = calendar.MonthOf(t)
	}

	tasks := s.services.Store.Tasks()
	upcoming := calendar.Upcoming(tasks, now)
	if upcoming == nil {
		upcoming = []model.Task{}
	}
	return c.JSON(http.StatusOK, MonthResponse{
		Month:    m.First().Format("2006-01"),
		Title:    m.String(),
		Weeks:    calendar.Grid(m),
		Days:     calendar.ByDay(tasks, m),
		Upcoming: upcoming,
	})
}
