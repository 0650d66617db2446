package server

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mohammad-safakhou/ctxmerge/internal/orchestrator"
)

type createSessionResponse struct {
	SessionID string `json:"session_id"`
	orchestrator.PlanResult
}

type collectRequest struct {
	SelectedSources []string                  `json:"selected_sources,omitempty"`
	SourceParams    map[string]map[string]any `json:"source_params,omitempty"`
}

type collectResponse struct {
	SessionID string `json:"session_id"`
	Status    string `json:"status"`
	orchestrator.CollectResult
}

func (s *Server) createSession(c echo.Context) error {
	var req orchestrator.Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "query is required")
	}
	if req.TokenBudget < 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "token_budget must be >= 0")
	}

	sess := s.sessions.Create(req)
	plan := s.phases.Plan(c.Request().Context(), sess)
	s.logger.Info("session planned",
		zap.String("session", sess.ID),
		zap.String("task", req.Task),
		zap.Int("proposed", len(plan.ProposedSources)))
	return c.JSON(http.StatusCreated, createSessionResponse{SessionID: sess.ID, PlanResult: plan})
}

func (s *Server) session(c echo.Context) (*orchestrator.Session, error) {
	id := c.Param("id")
	sess, ok := s.sessions.Get(id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "session not found")
	}
	return sess, nil
}

func (s *Server) collect(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	var body collectRequest
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	res := s.phases.Collect(c.Request().Context(), sess, body.SelectedSources, body.SourceParams)
	return c.JSON(http.StatusOK, collectResponse{
		SessionID:     sess.ID,
		Status:        string(sess.State()),
		CollectResult: res,
	})
}

func (s *Server) finalize(c echo.Context) error {
	sess, err := s.session(c)
	if err != nil {
		return err
	}
	bundle := s.phases.Finalize(c.Request().Context(), sess)
	s.sessions.Remove(sess.ID)
	return c.JSON(http.StatusOK, bundle)
}
