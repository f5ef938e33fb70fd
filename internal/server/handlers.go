package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/theirongolddev/bizlens/internal/chart"
	"github.com/theirongolddev/bizlens/internal/forecast"
	"github.com/theirongolddev/bizlens/internal/kpi"
	"github.com/theirongolddev/bizlens/internal/pipeline"
	"github.com/theirongolddev/bizlens/internal/table"
)

// ColumnInfo describes one column of an uploaded table.
type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// TableInfo is returned for uploads and table lookups.
type TableInfo struct {
	ID         string       `json:"id"`
	Name       string       `json:"name"`
	Rows       int          `json:"rows"`
	Columns    []ColumnInfo `json:"columns"`
	UploadedAt time.Time    `json:"uploaded_at"`
	Preview    [][]string   `json:"preview,omitempty"`
	Forecast   string       `json:"forecast_column,omitempty"`
}

// ChartInfo is one planned chart with its points.
type ChartInfo struct {
	Kind   string        `json:"kind"`
	Title  string        `json:"title"`
	X      string        `json:"x"`
	Y      string        `json:"y"`
	Points []chart.Point `json:"points"`
}

// ForecastResponse carries either a result or a non-fatal message.
type ForecastResponse struct {
	OK      bool             `json:"ok"`
	Message string           `json:"message,omitempty"`
	Result  *forecast.Result `json:"result,omitempty"`
}

// InsightRequest is the optional body of an insights call.
type InsightRequest struct {
	Question string `json:"question"`
}

// InsightResponse mirrors insight.Answer. Failures are reported in Text with
// OK false, never as HTTP errors.
type InsightResponse struct {
	OK    bool   `json:"ok"`
	Text  string `json:"text"`
	Model string `json:"model,omitempty"`
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	n := len(s.tables)
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"started_at": s.startedAt,
		"tables":     n,
	})
}

func (s *Service) handleList(w http.ResponseWriter, _ *http.Request) {
	sessions := s.list()
	out := make([]TableInfo, 0, len(sessions))
	for _, sess := range sessions {
		out = append(out, s.info(sess, false))
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": out})
}

func (s *Service) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)

	name, body, err := uploadedFile(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer func() { _ = body.Close() }()

	var t *table.Table
	if table.IsWorkbook(name) {
		t, err = table.LoadWorkbook(name, body)
	} else {
		t, err = table.LoadNamed(name, body)
	}
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess := s.put(t)
	s.log.Info("table uploaded",
		zap.String("id", sess.ID),
		zap.String("name", t.Name),
		zap.Int("rows", t.Nrow()),
		zap.Int("columns", t.Ncol()),
	)
	writeJSON(w, http.StatusCreated, s.info(sess, true))
}

// uploadedFile returns the multipart "file" part, or the raw body for other
// content types (named by the ?name= query parameter).
func uploadedFile(r *http.Request) (string, io.ReadCloser, error) {
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if strings.HasPrefix(mt, "multipart/") {
		f, hdr, err := r.FormFile("file")
		if err != nil {
			return "", nil, errors.New(`multipart upload needs a "file" field`)
		}
		return hdr.Filename, f, nil
	}
	name := r.URL.Query().Get("name")
	if name == "" {
		name = "upload.csv"
	}
	return name, r.Body, nil
}

func (s *Service) handleGet(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.info(sess, true))
}

func (s *Service) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleKPIs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]kpi.Set{"kpis": kpi.Extract(sess.Table)})
}

func (s *Service) handleCharts(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	specs := chart.Plan(sess.Table)
	out := make([]ChartInfo, 0, len(specs))
	for _, sp := range specs {
		out = append(out, ChartInfo{
			Kind:   sp.Kind.String(),
			Title:  sp.Title,
			X:      sp.X,
			Y:      sp.Y,
			Points: chart.Points(sess.Table, sp),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"charts": out})
}

func (s *Service) handleForecast(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	col, ok := pipeline.ForecastColumn(sess.Table, r.URL.Query().Get("column"))
	if !ok {
		writeJSON(w, http.StatusOK, ForecastResponse{
			Message: "no revenue or sales column to forecast; pass ?column=",
		})
		return
	}

	res, err := pipeline.RunForecast(r.Context(), s.log, sess.Table, col)
	var mc *forecast.MissingColumnError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ForecastResponse{OK: true, Result: res})
	case errors.Is(err, forecast.ErrNoDateColumn), errors.Is(err, forecast.ErrTooFewRows), errors.As(err, &mc):
		writeJSON(w, http.StatusOK, ForecastResponse{Message: forecast.Message(err)})
	default:
		s.log.Error("forecast failed", zap.String("id", sess.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, forecast.Message(err))
	}
}

func (s *Service) handleInsights(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req InsightRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	ans := s.asker.Ask(r.Context(), sess.Table, req.Question)
	writeJSON(w, http.StatusOK, InsightResponse{OK: ans.OK(), Text: ans.Text, Model: ans.Model})
}

func (s *Service) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	sess, ok := s.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
	}
	return sess, ok
}

func (s *Service) info(sess *session, preview bool) TableInfo {
	t := sess.Table
	cols := make([]ColumnInfo, 0, t.Ncol())
	for _, n := range t.Names() {
		cols = append(cols, ColumnInfo{Name: n, Kind: t.Kind(n).String()})
	}
	info := TableInfo{
		ID:         sess.ID,
		Name:       t.Name,
		Rows:       t.Nrow(),
		Columns:    cols,
		UploadedAt: sess.UploadedAt,
	}
	info.Forecast, _ = pipeline.ForecastColumn(t, "")
	if preview {
		info.Preview = t.Head(s.cfg.PreviewRows).Rows()
	}
	return info
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
