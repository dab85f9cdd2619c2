package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/moneta/moneta/moneta"
	"github.com/moneta/moneta/moneta/record"
	"github.com/moneta/moneta/moneta/request"
	"github.com/moneta/moneta/moneta/topic"
)

type searchResponse struct {
	Topic        string          `json:"topic"`
	StartRow     *int64          `json:"startRow"`
	MaxRows      *int64          `json:"maxRows"`
	Count        int             `json:"count"`
	Results      []record.Record `json:"results"`
	ExplainSQL   string          `json:"explainSql,omitempty"`
	ExplainSteps []string        `json:"explainSteps,omitempty"`
}

type topicsResponse struct {
	Count  int           `json:"count"`
	Topics []topic.Topic `json:"topics"`
}

type errorResponse struct {
	Error         string            `json:"error"`
	Message       string            `json:"message"`
	Context       map[string]string `json:"context,omitempty"`
	CorrelationID string            `json:"correlationId,omitempty"`
}

func (s *Server) handleSearch(c *gin.Context) {
	explain, _ := strconv.ParseBool(c.Query("explain"))

	res, err := s.svc.Search(c.Request.Context(), request.Coordinates{
		Path:        c.Request.URL.EscapedPath(),
		ContextPath: s.cfg.ContextPath,
		Params:      c.Request.URL.Query(),
	}, moneta.SearchOptions{Explain: explain})
	if err != nil {
		s.metrics.SearchesTotal.WithLabelValues(searchLabel(err), "error").Inc()
		s.writeError(c, err)
		return
	}

	s.metrics.SearchesTotal.WithLabelValues(res.Request.Topic, "ok").Inc()
	s.metrics.SearchRows.WithLabelValues(res.Request.Topic).Add(float64(len(res.Records)))

	c.JSON(http.StatusOK, searchResponse{
		Topic:        res.Request.Topic,
		StartRow:     res.Request.StartRow,
		MaxRows:      res.Request.MaxRows,
		Count:        len(res.Records),
		Results:      res.Records,
		ExplainSQL:   res.ExplainSQL,
		ExplainSteps: res.ExplainSteps,
	})
}

func (s *Server) handleTopics(c *gin.Context) {
	topics := s.svc.Topics()
	c.JSON(http.StatusOK, topicsResponse{Count: len(topics), Topics: topics})
}

func (s *Server) handleHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	failed := s.svc.Ping(ctx)
	if len(failed) == 0 {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
		return
	}

	sources := make(map[string]string, len(failed))
	for name, err := range failed {
		sources[name] = err.Error()
	}
	zerolog.Ctx(c.Request.Context()).Error().Interface("data_sources", sources).Msg("health check failed")
	c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "dataSources": sources})
}

func (s *Server) writeError(c *gin.Context, err error) {
	status := statusFor(err)
	body := errorResponse{
		Error:         "internal",
		Message:       err.Error(),
		CorrelationID: CorrelationID(c),
	}
	var merr *moneta.Error
	if errors.As(err, &merr) {
		body.Error = string(merr.Kind)
		body.Message = merr.Message
		body.Context = merr.Context()
	}

	logger := zerolog.Ctx(c.Request.Context())
	path := c.Request.URL.EscapedPath()
	switch {
	case moneta.IsKind(err, moneta.ErrCanceled):
		logger.Info().Err(err).Str("path", path).Int("status", status).Msg("search canceled")
	case status >= http.StatusInternalServerError:
		logger.Error().Err(err).Str("path", path).Msg("search failed")
		// Driver messages stay in the log.
		body.Message = "search failed"
	default:
		logger.Debug().Err(err).Str("path", path).Int("status", status).Msg("search rejected")
	}
	c.JSON(status, body)
}

// statusClientClosedRequest is the nginx convention for a request the client
// abandoned before a response was written.
const statusClientClosedRequest = 499

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	kind, ok := moneta.KindOf(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch kind {
	case moneta.ErrUnknownTopic:
		return http.StatusNotFound
	case moneta.ErrMissingTopic, moneta.ErrInvalidParameter, moneta.ErrUnconfiguredKey, moneta.ErrInvalidKeyValue:
		return http.StatusBadRequest
	case moneta.ErrCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

// searchLabel keeps unresolved topic tokens out of metric labels.
func searchLabel(err error) string {
	var merr *moneta.Error
	if !errors.As(err, &merr) || merr.Topic == "" {
		return "unresolved"
	}
	switch merr.Kind {
	case moneta.ErrMissingTopic, moneta.ErrUnknownTopic:
		return "unresolved"
	}
	return merr.Topic
}
