package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/fujitaka/MultiAssetOFX/internal/domain"
	"github.com/fujitaka/MultiAssetOFX/internal/events"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/export"
	"github.com/fujitaka/MultiAssetOFX/internal/modules/securities"
)

const (
	serviceName    = "multiasset-ofx"
	serviceVersion = "0.9.0"

	dateLayout = "2006-01-02"
)

// formView is the data handed to the index template. The form flow is
// stateless: entered values and errors travel in the response, never in
// a session.
type formView struct {
	Date       string
	Securities string
	Error      string
	Results    []domain.PriceRecord
	HasResults bool
	CanExport  bool
}

// handleIndex renders the empty query form
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderForm(w, formView{})
}

// handleResolve resolves the submitted codes and renders the results table
func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	view := formView{
		Date:       strings.TrimSpace(r.FormValue("date")),
		Securities: strings.TrimSpace(r.FormValue("securities")),
	}

	date, codes, errText := parseSubmission(view.Date, view.Securities)
	if errText != "" {
		view.Error = errText
		s.renderForm(w, view)
		return
	}

	records := s.batch.ResolveAll(codes, date)
	view.Results = records
	view.HasResults = true
	view.CanExport = len(exportableRecords(records)) > 0
	s.renderForm(w, view)
}

// handleDownloadOFX re-resolves the submission and streams one OFX
// statement. Prices are never stored, so the download re-queries the
// sources.
func (s *Server) handleDownloadOFX(w http.ResponseWriter, r *http.Request) {
	view := formView{
		Date:       strings.TrimSpace(r.FormValue("date")),
		Securities: strings.TrimSpace(r.FormValue("securities")),
	}

	date, codes, errText := parseSubmission(view.Date, view.Securities)
	if errText != "" {
		view.Error = errText
		s.renderForm(w, view)
		return
	}

	records := s.batch.ResolveAll(codes, date)
	exportable := exportableRecords(records)
	if len(exportable) == 0 {
		view.Error = "No valid price data to export"
		view.Results = records
		view.HasResults = true
		s.renderForm(w, view)
		return
	}

	content := s.generator.Generate(exportable, date, s.accountID)
	filename := s.generator.Filename(exportable, date)

	s.events.Emit(events.OFXGenerated, "server", map[string]interface{}{
		"positions": len(exportable),
		"filename":  filename,
	})

	w.Header().Set("Content-Type", "application/x-ofx")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if _, err := io.WriteString(w, content); err != nil {
		s.log.Error().Err(err).Msg("Failed to stream OFX download")
	}
}

// handleDownloadZip streams one OFX statement per currency, zipped
func (s *Server) handleDownloadZip(w http.ResponseWriter, r *http.Request) {
	view := formView{
		Date:       strings.TrimSpace(r.FormValue("date")),
		Securities: strings.TrimSpace(r.FormValue("securities")),
	}

	date, codes, errText := parseSubmission(view.Date, view.Securities)
	if errText != "" {
		view.Error = errText
		s.renderForm(w, view)
		return
	}

	records := s.batch.ResolveAll(codes, date)
	exportable := exportableRecords(records)
	if len(exportable) == 0 {
		view.Error = "No valid price data to export"
		view.Results = records
		view.HasResults = true
		s.renderForm(w, view)
		return
	}

	archive, err := s.generator.BuildCurrencyArchive(exportable, date, s.accountID)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to build currency archive")
		s.events.EmitError("server", err, map[string]interface{}{
			"operation": "archive",
			"date":      view.Date,
		})
		view.Error = "Archive generation failed"
		view.Results = records
		view.HasResults = true
		s.renderForm(w, view)
		return
	}

	filename := export.ArchiveFilename(date)

	s.events.Emit(events.ArchiveGenerated, "server", map[string]interface{}{
		"positions": len(exportable),
		"filename":  filename,
	})

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	if _, err := w.Write(archive); err != nil {
		s.log.Error().Err(err).Msg("Failed to stream archive download")
	}
}

// pricesRequest is the JSON body for POST /api/prices
type pricesRequest struct {
	Date       string   `json:"date"`
	Securities []string `json:"securities"`
}

// handleAPIPrices is the JSON twin of the form flow
func (s *Server) handleAPIPrices(w http.ResponseWriter, r *http.Request) {
	var req pricesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid date (expected YYYY-MM-DD)")
		return
	}

	codes := make([]string, 0, len(req.Securities))
	for _, raw := range req.Securities {
		if code := securities.Normalize(raw); code != "" {
			codes = append(codes, code)
		}
	}
	if len(codes) == 0 {
		s.writeError(w, http.StatusBadRequest, "no security codes provided")
		return
	}

	records := s.batch.ResolveAll(codes, date)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"date":    req.Date,
		"results": records,
	})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "ok",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// handleSystemStatus handles system status requests
func (s *Server) handleSystemStatus(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuPercent, ramPercent := s.getSystemStats()

	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"service":        serviceName,
		"version":        serviceVersion,
		"status":         "running",
		"uptime_seconds": int64(time.Since(s.started).Seconds()),
		"go_version":     runtime.Version(),
		"memory": map[string]interface{}{
			"alloc_mb":       m.Alloc / 1024 / 1024,
			"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
			"sys_mb":         m.Sys / 1024 / 1024,
			"num_gc":         m.NumGC,
		},
		"goroutines":  runtime.NumGoroutine(),
		"cpu_percent": cpuPercent,
		"ram_percent": ramPercent,
	})
}

// getSystemStats calculates host CPU and RAM usage percentages. The CPU
// sample uses a 100ms interval so the status call stays fast; failures
// degrade to zero rather than failing the endpoint.
func (s *Server) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}

	return cpuAvg, memStat.UsedPercent
}

// parseSubmission validates the shared form fields. The returned string
// is a user-facing error, empty on success.
func parseSubmission(dateStr, securitiesStr string) (time.Time, []string, string) {
	if dateStr == "" || securitiesStr == "" {
		return time.Time{}, nil, "Date and security codes are both required"
	}

	date, err := time.Parse(dateLayout, dateStr)
	if err != nil {
		return time.Time{}, nil, "Invalid date (expected YYYY-MM-DD)"
	}

	codes := securities.ParseList(securitiesStr)
	if len(codes) == 0 {
		return time.Time{}, nil, "No valid security codes entered"
	}

	return date, codes, ""
}

func exportableRecords(records []domain.PriceRecord) []domain.PriceRecord {
	exportable := make([]domain.PriceRecord, 0, len(records))
	for _, record := range records {
		if record.IsExportable() {
			exportable = append(exportable, record)
		}
	}
	return exportable
}

func (s *Server) renderForm(w http.ResponseWriter, view formView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, view); err != nil {
		s.log.Error().Err(err).Msg("Failed to render template")
	}
}

// writeJSON writes a JSON response
func (s *Server) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an error response
func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{
		"error": message,
	})
}
