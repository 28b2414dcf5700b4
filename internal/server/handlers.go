package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentOS/console/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/console/internal/shared/utils"
)

type filterRequest struct {
	Query    *string           `json:"query"`
	Values   map[string]string `json:"values"`
	PageSize int               `json:"page_size"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required,min=1"`
}

type fieldValue struct {
	Label string `json:"label"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

func fail(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func (s *Server[T, S]) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "tracewatch",
		"kind":    s.engine.Kind(),
	})
}

// health reports 503 once the push channel has given up reconnecting.
func (s *Server[T, S]) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	if s.engine.ReconnectExhausted() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	body := gin.H{
		"status":              status,
		"kind":                s.engine.Kind(),
		"engine_id":           s.engine.ID(),
		"connection":          s.engine.State(),
		"reconnect_pending":   s.engine.ReconnectPending(),
		"reconnect_exhausted": s.engine.ReconnectExhausted(),
		"started":             humanize.Time(s.started),
		"uptime_seconds":      int64(time.Since(s.started).Seconds()),
	}
	if created, err := id.Timestamp(s.engine.ID()); err == nil {
		body["engine_created"] = created.UTC().Format(time.RFC3339Nano)
	}
	c.JSON(code, body)
}

func (s *Server[T, S]) snapshot(c *gin.Context) {
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server[T, S]) rows(c *gin.Context) {
	fields := s.engine.Delegate().TableFields()
	columns := make([]string, len(fields))
	for i, f := range fields {
		columns[i] = f.Label
	}

	traces := s.engine.Traces()
	rows := make([][]string, len(traces))
	for i, rec := range traces {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = f.Render(rec)
		}
		rows[i] = row
	}

	c.JSON(http.StatusOK, gin.H{
		"columns":     columns,
		"rows":        rows,
		"page":        s.engine.Page(),
		"total_pages": s.engine.TotalPages(),
		"total":       s.engine.Total(),
	})
}

func (s *Server[T, S]) statistics(c *gin.Context) {
	resp := gin.H{"statistics": s.engine.FormattedStatistics()}
	if raw, ok := s.engine.Statistics(); ok {
		resp["raw"] = raw
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server[T, S]) filters(c *gin.Context) {
	keys := s.engine.Delegate().FilterKeys()
	out := make([]gin.H, len(keys))
	for i, k := range keys {
		out[i] = gin.H{"name": k.Name, "label": k.Label, "param": k.Param}
	}
	c.JSON(http.StatusOK, gin.H{
		"keys":    out,
		"options": s.engine.FilterOptions(),
		"active":  s.engine.Filters(),
	})
}

func (s *Server[T, S]) applyFilter(c *gin.Context) {
	var req filterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	var query string
	if req.Query != nil {
		query = *req.Query
	}
	if err := utils.ValidateFilters(query, req.Values); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	for name := range req.Values {
		if !s.engine.HasFilter(name) {
			fail(c, http.StatusBadRequest, fmt.Sprintf("unknown filter %q", name))
			return
		}
	}

	if req.Query != nil {
		s.engine.SetQuery(*req.Query)
	}
	for name, value := range req.Values {
		if err := s.engine.SetFilter(name, value); err != nil {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	var ok bool
	if req.PageSize > 0 {
		ok = s.engine.SetPageSize(c.Request.Context(), req.PageSize)
	} else {
		ok = s.engine.ApplyFilter(c.Request.Context())
	}
	s.respondPage(c, ok)
}

func (s *Server[T, S]) resetFilter(c *gin.Context) {
	s.respondPage(c, s.engine.ResetFilter(c.Request.Context()))
}

func (s *Server[T, S]) setPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.respondPage(c, s.engine.SetPage(c.Request.Context(), req.Page))
}

// respondPage answers with the snapshot, or 502 when the fetch failed. The
// engine has kept the previous page either way.
func (s *Server[T, S]) respondPage(c *gin.Context, ok bool) {
	if !ok {
		fail(c, http.StatusBadGateway, "failed to fetch traces")
		return
	}
	c.JSON(http.StatusOK, s.engine.Snapshot())
}

func (s *Server[T, S]) detail(c *gin.Context) {
	traceID := c.Param("id")
	if err := utils.ValidateTraceID(traceID); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, ok := s.engine.GetDetail(c.Request.Context(), traceID)
	if !ok {
		fail(c, http.StatusBadGateway, "failed to fetch trace detail")
		return
	}

	fields := s.engine.Delegate().DetailFields()
	values := make([]fieldValue, len(fields))
	for i, f := range fields {
		values[i] = fieldValue{Label: f.Label, Key: f.Key, Value: f.Render(rec)}
	}
	c.JSON(http.StatusOK, gin.H{"trace": rec, "fields": values})
}

func (s *Server[T, S]) closeDetail(c *gin.Context) {
	s.engine.CloseDetail()
	c.Status(http.StatusNoContent)
}

func (s *Server[T, S]) currentView(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"path": s.view.Path()})
}

func (s *Server[T, S]) viewDetail(c *gin.Context) {
	traceID := c.Param("id")
	if err := utils.ValidateTraceID(traceID); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	s.engine.ViewDetail(traceID)
	c.JSON(http.StatusOK, gin.H{"path": s.view.Path()})
}

func (s *Server[T, S]) backToList(c *gin.Context) {
	s.engine.BackToList()
	c.JSON(http.StatusOK, gin.H{"path": s.view.Path()})
}

func (s *Server[T, S]) refresh(c *gin.Context) {
	s.respondPage(c, s.engine.Refresh(c.Request.Context()))
}

func (s *Server[T, S]) connect(c *gin.Context) {
	if !s.engine.Connect(c.Request.Context()) {
		fail(c, http.StatusBadGateway, "failed to connect to tracing feed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"connection": s.engine.State()})
}

func (s *Server[T, S]) disconnect(c *gin.Context) {
	s.engine.Disconnect()
	c.JSON(http.StatusOK, gin.H{"connection": s.engine.State()})
}

func (s *Server[T, S]) listNotices(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"notices": s.notices.List()})
}
