// Package web serves the upload form and converts uploaded punch logs into
// attendance spreadsheets. Every request works on its own copy of the upload.
package web

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"gopunch/attendance"
	"gopunch/config"
	"gopunch/importer"
	"gopunch/internal/timeutil"
	"gopunch/output"
	"gopunch/pipeline"
)

//go:embed templates/*.html
var templateFS embed.FS

const downloadBaseName = "Processed_Attendance_Summary"

type Server struct {
	cfg       config.Config
	layouts   []importer.Layout
	policy    attendance.Policy
	maxUpload int64
	logger    *slog.Logger
	cache     *exportCache
	mux       *http.ServeMux
}

type indexPageView struct {
	Title     string
	Layout    string
	Layouts   []importer.Layout
	Format    string
	Sentinels string
	Cutoff    string
}

type uploadRequest struct {
	filename  string
	data      []byte
	layout    string
	format    string
	sentinels string
}

type previewRow struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Punches  int    `json:"punches"`
}

type previewLineError struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

type previewSummary struct {
	Employees       int `json:"employees"`
	Days            int `json:"days"`
	Rows            int `json:"rows"`
	MissingCheckIn  int `json:"missingCheckIn"`
	MissingCheckOut int `json:"missingCheckOut"`
}

type previewResponse struct {
	Layout    string             `json:"layout"`
	Ambiguous []string           `json:"ambiguousWith"`
	Encoding  string             `json:"encoding"`
	LinesRead int                `json:"linesRead"`
	Records   int                `json:"records"`
	Malformed int                `json:"malformed"`
	Summary   previewSummary     `json:"summary"`
	Rows      []previewRow       `json:"rows"`
	Errors    []previewLineError `json:"errors"`
}

func NewServer(cfg config.Config, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy, err := cfg.AttendancePolicy()
	if err != nil {
		return nil, err
	}
	cache, err := newExportCache(int64(cfg.Serve.CacheMaxMB) << 20)
	if err != nil {
		return nil, err
	}

	server := &Server{
		cfg:       cfg,
		layouts:   cfg.ImportLayouts(),
		policy:    policy,
		maxUpload: int64(cfg.Serve.MaxUploadMB) << 20,
		logger:    logger,
		cache:     cache,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", server.handleIndex)
	mux.HandleFunc("POST /api/convert", server.handleAPIConvert)
	mux.HandleFunc("POST /api/preview", server.handleAPIPreview)
	server.mux = mux

	return server, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Close releases the export cache.
func (s *Server) Close() {
	s.cache.close()
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexPageView{
		Title:     "gopunch - attendance converter",
		Layout:    s.cfg.Parser.Layout,
		Layouts:   s.layouts,
		Format:    s.cfg.Output.Format,
		Sentinels: s.cfg.Output.Sentinels,
		Cutoff:    timeutil.FormatClock(s.policy.SinglePunchCutoff),
	}
	if err := renderTemplate(w, "index.html", view); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleAPIConvert(w http.ResponseWriter, r *http.Request) {
	upload, err := s.readUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	format, err := output.CanonicalFormat(upload.format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sentinels, err := output.SentinelsForStyle(upload.sentinels)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	key := exportKey(upload.data, upload.layout, format, upload.sentinels, timeutil.FormatClock(s.policy.SinglePunchCutoff))
	export, cached := s.cache.get(key)
	if !cached {
		result, err := s.run(upload)
		if err != nil {
			http.Error(w, err.Error(), runErrorStatus(err))
			return
		}

		writer, err := output.WriterForFormat(format, sentinels)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		var buf bytes.Buffer
		if err := writer.Write(&buf, result.Rows); err != nil {
			s.logger.Error("export attendance table failed", slog.String("file", upload.filename), slog.String("error", err.Error()))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		export = cachedExport{
			body:      buf.Bytes(),
			records:   len(result.Parse.Records),
			malformed: result.Parse.Malformed,
			layout:    result.Parse.Layout,
		}
		s.cache.set(key, export)
	}

	s.logger.Info("converted punch log",
		slog.String("file", upload.filename),
		slog.String("size", humanize.Bytes(uint64(len(upload.data)))),
		slog.String("layout", export.layout),
		slog.Int("records", export.records),
		slog.Int("malformed", export.malformed),
		slog.Bool("cached", cached),
	)

	w.Header().Set("Content-Type", output.ContentType(format))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": downloadBaseName + output.Extension(format),
	}))
	w.Header().Set("X-Punch-Records", fmt.Sprintf("%d", export.records))
	w.Header().Set("X-Punch-Malformed", fmt.Sprintf("%d", export.malformed))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.body)
}

func (s *Server) handleAPIPreview(w http.ResponseWriter, r *http.Request) {
	upload, err := s.readUpload(w, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	sentinels, err := output.SentinelsForStyle(upload.sentinels)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.run(upload)
	if err != nil {
		http.Error(w, err.Error(), runErrorStatus(err))
		return
	}

	resp := previewResponse{
		Layout:    result.Parse.Layout,
		Ambiguous: append([]string{}, result.Parse.Ambiguous...),
		Encoding:  result.Parse.Encoding,
		LinesRead: result.Parse.LinesRead,
		Records:   len(result.Parse.Records),
		Malformed: result.Parse.Malformed,
		Summary: previewSummary{
			Employees:       result.Summary.Employees,
			Days:            result.Summary.Days,
			Rows:            result.Summary.Rows,
			MissingCheckIn:  result.Summary.MissingCheckIn,
			MissingCheckOut: result.Summary.MissingCheckOut,
		},
		Rows:   make([]previewRow, 0, len(result.Rows)),
		Errors: make([]previewLineError, 0, len(result.Parse.Errors)),
	}
	for _, row := range result.Rows {
		resp.Rows = append(resp.Rows, previewRow{
			ID:       row.EmployeeID,
			Name:     row.EmployeeName,
			Date:     row.Date.Format(time.DateOnly),
			CheckIn:  output.FormatMark(row.CheckIn, sentinels.NoLogin),
			CheckOut: output.FormatMark(row.CheckOut, sentinels.NoLogout),
			Punches:  row.Punches,
		})
	}
	for _, lineErr := range result.Parse.Errors {
		resp.Errors = append(resp.Errors, previewLineError{Line: lineErr.Line, Reason: lineErr.Error()})
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (uploadRequest, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload+(1<<20))
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		return uploadRequest{}, fmt.Errorf("parse multipart form: %w", err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return uploadRequest{}, errors.New("missing file upload")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return uploadRequest{}, fmt.Errorf("read upload: %w", err)
	}
	data, err = importer.Load(header.Filename, data)
	if err != nil {
		return uploadRequest{}, err
	}

	upload := uploadRequest{
		filename:  header.Filename,
		data:      data,
		layout:    firstNonEmpty(r.FormValue("layout"), s.cfg.Parser.Layout),
		format:    firstNonEmpty(r.FormValue("format"), s.cfg.Output.Format),
		sentinels: firstNonEmpty(r.FormValue("sentinels"), s.cfg.Output.Sentinels),
	}
	if !strings.EqualFold(upload.layout, pipeline.LayoutAuto) {
		if _, err := importer.LayoutByName(upload.layout, s.layouts); err != nil {
			return uploadRequest{}, err
		}
	}
	return upload, nil
}

func (s *Server) run(upload uploadRequest) (*pipeline.Result, error) {
	result, err := pipeline.Run(upload.data, pipeline.Options{
		Layout:  upload.layout,
		Layouts: s.layouts,
		Policy:  s.policy,
	})
	if err != nil {
		s.logger.Warn("punch log rejected",
			slog.String("file", upload.filename),
			slog.String("size", humanize.Bytes(uint64(len(upload.data)))),
			slog.String("error", err.Error()),
		)
		return nil, err
	}
	if len(result.Parse.Ambiguous) > 0 {
		s.logger.Warn("layout selection is ambiguous",
			slog.String("file", upload.filename),
			slog.String("layout", result.Parse.Layout),
			slog.String("tied", strings.Join(result.Parse.Ambiguous, ",")),
		)
	}
	return result, nil
}

func runErrorStatus(err error) int {
	if errors.Is(err, importer.ErrEncoding) || errors.Is(err, importer.ErrEmptyResult) {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func renderTemplate(w http.ResponseWriter, pageTemplate string, data any) error {
	tmpl, err := template.ParseFS(templateFS, "templates/base.html", "templates/"+pageTemplate)
	if err != nil {
		return fmt.Errorf("parse template %s: %w", pageTemplate, err)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		return fmt.Errorf("render template %s: %w", pageTemplate, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err = buf.WriteTo(w)
	return err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return ""
}
