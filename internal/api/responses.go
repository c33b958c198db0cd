package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/samcharles93/parley/internal/metrics"
)

type Server struct {
	store   *ResponseStore
	service *ResponseService
	clock   func() time.Time
}

func NewServer(store *ResponseStore, service *ResponseService) *Server {
	if store == nil {
		store = NewResponseStore()
	}
	return &Server{
		store:   store,
		service: service,
		clock:   time.Now,
	}
}

func (s *Server) Register(e *echo.Echo) {
	e.POST("/v1/responses", s.handleCreateResponse)
	e.GET("/v1/responses/:id", s.handleGetResponse)
	e.DELETE("/v1/responses/:id", s.handleDeleteResponse)

	e.GET("/healthz", s.handleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

func (s *Server) handleCreateResponse(c *echo.Context) error {
	if s.service == nil {
		return s.generationError(c, http.StatusInternalServerError, "server_error", "response service not configured", "")
	}
	req, err := decodeJSON[ResponsesRequest](c.Request().Body)
	if err != nil {
		metrics.RecordHTTPGeneration(statusClass(http.StatusBadRequest))
		return writeBadRequest(c, "", err.Error())
	}

	resp, err := s.service.CreateResponse(c.Request().Context(), &req)
	if err != nil {
		status, werr := writeServiceError(c, err)
		metrics.RecordHTTPGeneration(statusClass(status))
		return werr
	}
	if req.Store == nil || *req.Store {
		s.store.Save(*resp)
	}
	metrics.RecordHTTPGeneration(statusClass(http.StatusOK))
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetResponse(c *echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return writeNotFound(c, "response not found")
	}
	resp, ok := s.store.Get(id)
	if !ok {
		return writeNotFound(c, "response not found")
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleDeleteResponse(c *echo.Context) error {
	id := c.Param("id")
	if id == "" || !s.store.Delete(id) {
		return writeNotFound(c, "response not found")
	}
	return c.JSON(http.StatusOK, DeleteResponseResp{
		ID:      id,
		Object:  "response",
		Deleted: true,
	})
}

func (s *Server) handleHealth(c *echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"responses": s.store.Len(),
		"time":      s.clock().UTC().Format(time.RFC3339),
	})
}

func (s *Server) generationError(c *echo.Context, status int, errType, msg, param string) error {
	metrics.RecordHTTPGeneration(statusClass(status))
	return writeError(c, status, errType, msg, param, "")
}

// statusClass renders 200 as "2xx", 404 as "4xx" and so on.
func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
