package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/timer"
)

// ModeRequest is the body of POST /api/timer/mode
type ModeRequest struct {
	Mode string `json:"mode" validate:"required"`
}

// DurationsRequest is the body of PUT /api/timer/durations. Omitted modes
// keep their current length.
type DurationsRequest struct {
	Work       *int `json:"work" validate:"omitempty,gte=1,lte=600"`
	ShortBreak *int `json:"shortBreak" validate:"omitempty,gte=1,lte=600"`
	LongBreak  *int `json:"longBreak" validate:"omitempty,gte=1,lte=600"`
}

// SkipResponse reports the transition a skip caused
type SkipResponse struct {
	Snapshot     timer.Snapshot     `json:"timer"`
	Transition   timer.Transition   `json:"transition"`
	Notification timer.Notification `json:"notification"`
}

func (s *Server) timerState(c echo.Context) error {
	return c.JSON(http.StatusOK, s.services.Timer.Snapshot())
}

func (s *Server) timerMode(c echo.Context) error {
	var req ModeRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}
	mode, err := timer.ParseMode(req.Mode)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.services.Timer.SwitchMode(mode)
	return c.JSON(http.StatusOK, s.services.Timer.Snapshot())
}

func (s *Server) timerToggle(c echo.Context) error {
	s.services.Timer.Toggle()
	return c.JSON(http.StatusOK, s.services.Timer.Snapshot())
}

func (s *Server) timerSkip(c echo.Context) error {
	t := s.services.Timer.Skip()
	return c.JSON(http.StatusOK, SkipResponse{
		Snapshot:     s.services.Timer.Snapshot(),
		Transition:   t,
		Notification: t.Notification(),
	})
}

func (s *Server) timerReset(c echo.Context) error {
	s.services.Timer.Reset()
	return c.JSON(http.StatusOK, s.services.Timer.Snapshot())
}

func (s *Server) timerDurations(c echo.Context) error {
	var req DurationsRequest
	if err := bindValid(c, &req); err != nil {
		return err
	}

	d := s.services.Timer.Snapshot().Durations
	if req.Work != nil {
		d.Work = *req.Work
	}
	if req.ShortBreak != nil {
		d.ShortBreak = *req.ShortBreak
	}
	if req.LongBreak != nil {
		d.LongBreak = *req.LongBreak
	}
	s.services.Timer.SetDurations(d)

	if s.services.SaveDurations != nil {
		if err := s.services.SaveDurations(d); err != nil {
			s.storeError(c, err)
		}
	}
	return c.JSON(http.StatusOK, s.services.Timer.Snapshot())
}

func queryInt(c echo.Context, name string, def, max int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, name+" must be a positive integer")
	}
	if n > max {
		n = max
	}
	return n, nil
}

func (s *Server) timerHistory(c echo.Context) error {
	limit, err := queryInt(c, "limit", 20, 500)
	if err != nil {
		return err
	}
	if s.services.History == nil {
		return c.JSON(http.StatusOK, []model.SessionLog{})
	}
	sessions, err := s.services.History.RecentSessions(limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load history").SetInternal(err)
	}
	return c.JSON(http.StatusOK, sessions)
}

func (s *Server) timerStats(c echo.Context) error {
	days, err := queryInt(c, "days", 7, 366)
	if err != nil {
		return err
	}
	if s.services.History == nil {
		return c.JSON(http.StatusOK, []model.DayStat{})
	}
	stats, err := s.services.History.DailyStats(days, time.Now())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load stats").SetInternal(err)
	}
	return c.JSON(http.StatusOK, stats)
}
