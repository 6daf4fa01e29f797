package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"time"

	"dialer-insights-go/internal/actionable"
	"dialer-insights-go/internal/dataset"
	"dialer-insights-go/internal/export"
	"dialer-insights-go/internal/logger"
	"dialer-insights-go/internal/processor"
	"dialer-insights-go/internal/types"
)

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) prefixes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.catalog.Entries())
}

// upload accepts one or more exports in the multipart fields "files" or "file"
// and responds with the analysis summary.
func (s *Server) upload(w http.ResponseWriter, r *http.Request) {
	reqLog := logger.New().WithRequest(r).WithField("handler", "upload")

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, fmt.Sprintf("upload exceeds %d MB", s.maxUpload>>20))
			return
		}
		writeError(w, http.StatusBadRequest, "expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := slices.Concat(r.MultipartForm.File["files"], r.MultipartForm.File["file"])
	if len(headers) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	sources := make([]dataset.Source, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+fh.Filename)
			return
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			writeError(w, http.StatusBadRequest, "unreadable file "+fh.Filename)
			return
		}
		sources = append(sources, dataset.BytesSource(fh.Filename, data))
	}

	res, err := s.pipeline.Ingest(r.Context(), sources)
	if errors.Is(err, processor.ErrNoUsableData) {
		writeError(w, http.StatusBadRequest, "no usable rows in the uploaded files")
		return
	}
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("ingest failed")
		writeError(w, http.StatusUnprocessableEntity, "could not read the uploaded files")
		return
	}
	writeJSON(w, http.StatusOK, res.Summary())
}

func (s *Server) listAnalyses(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		logger.New().WithRequest(r).WithField("error", err.Error()).Error("list analyses failed")
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	type item struct {
		ID           string  `json:"id"`
		FileName     string  `json:"file_name"`
		UploadedAt   string  `json:"uploaded_at"`
		TotalRecords int     `json:"total_records"`
		TotalANIs    int     `json:"total_anis"`
		PctAnswer    float64 `json:"pct_answer"`
	}
	out := make([]item, 0, len(list))
	for _, a := range list {
		out = append(out, item{
			ID:           a.ID,
			FileName:     a.FileName,
			UploadedAt:   a.UploadedAt.Format(time.RFC3339),
			TotalRecords: a.TotalRecords,
			TotalANIs:    a.TotalANIs,
			PctAnswer:    a.PctAnswer,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) getAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Summary())
}

func (s *Server) deleteAnalysis(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	if err := s.store.Delete(r.Context(), res.ID); err != nil {
		writeError(w, http.StatusInternalServerError, "store unavailable")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) meta(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, res.Meta)
}

type recordsQuery struct {
	types.RecordsFilter
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

func (s *Server) queryRecords(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	var q recordsQuery
	if err := decodeBody(r, &q); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, processor.QueryRecords(res.Records, q.RecordsFilter, q.Offset, q.Limit))
}

func (s *Server) actions(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	keep, discard := actionable.Partition(res.ANISummaries)
	writeJSON(w, http.StatusOK, map[string]any{
		"actions":      actionable.Generate(res.Summary()),
		"keep_anis":    len(keep),
		"discard_anis": len(discard),
	})
}

func (s *Server) simulateCut(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	var req struct {
		Base        string `json:"base"`
		MaxAttempts *int   `json:"max_attempts"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.MaxAttempts == nil || *req.MaxAttempts < 0 {
		writeError(w, http.StatusBadRequest, "max_attempts must be a non-negative integer")
		return
	}
	writeJSON(w, http.StatusOK, actionable.SimulateCut(res, req.Base, *req.MaxAttempts))
}

func (s *Server) thresholds(w http.ResponseWriter, r *http.Request) {
	res, ok := s.loadAnalysis(w, r, "")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"thresholds": actionable.Thresholds,
		"categories": actionable.ThresholdTables(res.ANISummaries),
		"contact":    actionable.ContactThresholds(res.ContactCurve),
	})
}

type exportRequest struct {
	AnalysisID string              `json:"analysis_id"`
	Format     string              `json:"format"`
	Filter     types.RecordsFilter `json:"filter"`
	Tags       []types.Tag         `json:"tags"`
}

// exportTarget decodes an export request and loads its analysis.
func (s *Server) exportTarget(w http.ResponseWriter, r *http.Request) (*types.AnalysisResult, exportRequest, export.Format, bool) {
	var req exportRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return nil, req, "", false
	}
	format, err := export.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, "format must be csv, txt or xlsx")
		return nil, req, "", false
	}
	if req.AnalysisID == "" {
		writeError(w, http.StatusBadRequest, "analysis_id is required")
		return nil, req, "", false
	}
	res, ok := s.loadAnalysis(w, r, req.AnalysisID)
	return res, req, format, ok
}

func (s *Server) exportRecords(w http.ResponseWriter, r *http.Request) {
	res, req, format, ok := s.exportTarget(w, r)
	if !ok {
		return
	}
	recs := processor.ApplyFilter(res.Records, req.Filter)
	s.sendFile(w, r, format, "records", func(out io.Writer) error {
		return export.WriteRecords(out, recs, format)
	})
}

func (s *Server) exportSummary(w http.ResponseWriter, r *http.Request) {
	res, _, format, ok := s.exportTarget(w, r)
	if !ok {
		return
	}
	s.sendFile(w, r, format, "ani_summary", func(out io.Writer) error {
		return export.WriteSummaries(out, res.ANISummaries, format)
	})
}

// exportFiltered exports the records of every ANI carrying one of the requested tags.
func (s *Server) exportFiltered(w http.ResponseWriter, r *http.Request) {
	res, req, format, ok := s.exportTarget(w, r)
	if !ok {
		return
	}
	if len(req.Tags) == 0 {
		writeError(w, http.StatusBadRequest, "at least one tag is required")
		return
	}
	for _, t := range req.Tags {
		if !knownTag(t) {
			writeError(w, http.StatusBadRequest, "unknown tag "+string(t))
			return
		}
	}
	recs := actionable.RecordsForTags(res, req.Tags)
	s.sendFile(w, r, format, "filtered_base", func(out io.Writer) error {
		return export.WriteRecords(out, recs, format)
	})
}

func (s *Server) sendFile(w http.ResponseWriter, r *http.Request, format export.Format, base string, write func(io.Writer) error) {
	var buf bytes.Buffer
	if err := write(&buf); err != nil {
		logger.New().WithRequest(r).WithField("error", err.Error()).Error("export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", format.FileName(base)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func knownTag(t types.Tag) bool {
	for _, k := range types.AllTags {
		if k == t {
			return true
		}
	}
	return false
}
