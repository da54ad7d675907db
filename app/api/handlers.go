package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/regcheck/app/database"
	"github.com/lysyi3m/regcheck/app/export"
	"github.com/lysyi3m/regcheck/app/metrics"
	"github.com/lysyi3m/regcheck/app/registry"
	"github.com/lysyi3m/regcheck/app/source"
	"github.com/lysyi3m/regcheck/app/tasks"
)

const (
	defaultRunsLimit = 50
	maxRunsLimit     = 500
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var errUploadTooLarge = errors.New("upload exceeds size limit")

func NewHandler(configCache *source.ConfigCache, sourceRepo database.SourceRepository,
	runRepo database.RunRepository, scheduler RunSubmitter, m *metrics.Metrics, uploadLimit int64) *Handler {
	return &Handler{
		configCache: configCache,
		sourceRepo:  sourceRepo,
		runRepo:     runRepo,
		scheduler:   scheduler,
		metrics:     m,
		uploadLimit: uploadLimit,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		health["sources"] = sourceCount
	}

	health["loaded_configurations"] = h.configCache.GetConfigCount()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	stats, err := h.runRepo.GetRunStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_run_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := gin.H{
		"runs": gin.H{
			"total":     stats.Total,
			"pending":   stats.Pending,
			"running":   stats.Running,
			"completed": stats.Completed,
			"failed":    stats.Failed,
		},
		"loaded_configurations":  h.configCache.GetConfigCount(),
		"enabled_configurations": len(h.configCache.GetEnabledConfigs()),
	}

	if sourceCount, err := h.sourceRepo.GetSourceCount(); err == nil {
		response["sources"] = sourceCount
	}

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APIListSources(c *gin.Context) {
	configs := h.configCache.GetConfigs()

	sources := make([]map[string]interface{}, 0, len(configs))

	for _, sourceConfig := range configs {
		sourceInfo := map[string]interface{}{
			"name":             sourceConfig.Name,
			"domain":           sourceConfig.Domain,
			"url":              sourceConfig.URL,
			"enabled":          sourceConfig.Settings.Enabled,
			"scheduled":        sourceConfig.Scheduled(),
			"refresh_interval": (time.Duration(sourceConfig.Settings.RefreshInterval) * time.Second).String(),
			"local_path":       sourceConfig.Local.Path,
		}

		if src, err := h.sourceRepo.GetSource(sourceConfig.Name); err == nil && src != nil {
			sourceInfo["last_run_at"] = src.LastRunAt
			sourceInfo["next_run_at"] = src.NextRunAt
			sourceInfo["updated_at"] = src.UpdatedAt
		}

		if run, err := h.runRepo.GetLastRun(sourceConfig.Name); err == nil && run != nil {
			sourceInfo["last_run"] = newRunResponse(run)
		}

		sources = append(sources, sourceInfo)
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"sources": sources,
		"total":   len(sources),
	})
}

func (h *Handler) APIReloadSource(c *gin.Context) {
	name := c.Param("name")

	if _, err := h.configCache.GetConfig(name); err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return
	}

	sourceConfig, err := h.configCache.LoadConfig(name)
	if err != nil {
		slog.Error("Error reloading configuration", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to reload configuration",
			"details": err.Error(),
		})
		return
	}

	syncTask := tasks.NewSyncSourceConfigTask(name, sourceConfig, h.sourceRepo)
	if err := h.scheduler.EnqueueTask(syncTask); err != nil {
		slog.Error("Error enqueueing sync task", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue sync task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Configuration reloaded and sync task enqueued successfully",
		"source": gin.H{
			"name":   name,
			"domain": sourceConfig.Domain,
			"url":    sourceConfig.URL,
		},
		"task": gin.H{
			"id":   syncTask.ID,
			"type": syncTask.Type,
		},
	})
}

func (h *Handler) APICheckSource(c *gin.Context) {
	sourceConfig, ok := h.runnableSource(c)
	if !ok {
		return
	}

	if sourceConfig.Domain == registry.DomainWatchlist || sourceConfig.URL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Source has no registry URL; upload a document instead"})
		return
	}

	h.submit(c, sourceConfig, "", nil)
}

func (h *Handler) APIUploadWatchlist(c *gin.Context) {
	sourceConfig, ok := h.runnableSource(c)
	if !ok {
		return
	}

	if sourceConfig.Domain != registry.DomainWatchlist {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Source '%s' is not a watchlist source", sourceConfig.Name)})
		return
	}

	document, filename, err := h.readUpload(c, "document")
	if err != nil {
		h.uploadError(c, "document", err)
		return
	}
	if document == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'document' file"})
		return
	}

	referenceDate, err := source.ResolveReferenceDate(c.PostForm("reference_date"), filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Reference date is required",
			"details": err.Error(),
		})
		return
	}

	h.submit(c, sourceConfig, referenceDate, document)
}

func (h *Handler) APIDiff(c *gin.Context) {
	newer, ok := h.readGrid(c, "new", true)
	if !ok {
		return
	}
	older, ok := h.readGrid(c, "old", true)
	if !ok {
		return
	}
	deals, ok := h.readGrid(c, "deals", false)
	if !ok {
		return
	}

	started := time.Now()
	report := registry.CompareSnapshots(newer, older)

	run, err := h.runRepo.CreateRun("", registry.DomainDiff, "")
	if err == nil {
		err = h.runRepo.CompleteRun(run.ID, report)
	}
	if err != nil {
		slog.Error("Database error", "operation", "store_diff", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	if h.metrics != nil {
		h.metrics.ObserveReport(report, started)
	}

	response := gin.H{
		"id":     run.ID,
		"domain": report.Domain,
		"counts": report.Counts,
		"rows":   newRowResponses(report.Rows),
	}
	if deals != nil {
		response["loans"] = loanList(registry.MatchLoans(newer, deals))
	}

	slog.Info("Diff completed", "run_id", run.ID, "rows", len(report.Rows), "duration", time.Since(started))

	c.JSON(http.StatusOK, response)
}

func (h *Handler) APILoans(c *gin.Context) {
	newer, ok := h.readGrid(c, "new", true)
	if !ok {
		return
	}
	deals, ok := h.readGrid(c, "deals", true)
	if !ok {
		return
	}

	matches := registry.MatchLoans(newer, deals)

	if c.Query("format") == "xlsx" {
		var buf bytes.Buffer
		if err := export.WriteLoans(&buf, matches); err != nil {
			slog.Error("Export error", "operation", "write_loans", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="loans.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"loans": loanList(matches),
		"total": len(matches),
	})
}

func (h *Handler) APIListRuns(c *gin.Context) {
	limit := defaultRunsLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = min(parsed, maxRunsLimit)
	}

	runs, err := h.runRepo.GetRecentRuns(limit)
	if err != nil {
		slog.Error("Database error", "operation", "get_recent_runs", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	response := make([]RunResponse, 0, len(runs))
	for i := range runs {
		response = append(response, newRunResponse(&runs[i]))
	}

	c.JSON(http.StatusOK, gin.H{
		"runs":  response,
		"total": len(response),
	})
}

func (h *Handler) APIGetRun(c *gin.Context) {
	run, ok := h.findRun(c)
	if !ok {
		return
	}

	rows, err := h.runRepo.GetResults(run.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_results", "run_id", run.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	filtered := filterRows(run.Domain, rows, c.Query("q"), c.Query("status"))

	c.JSON(http.StatusOK, gin.H{
		"run":      newRunResponse(run),
		"rows":     newRowResponses(filtered),
		"filtered": len(filtered),
	})
}

func (h *Handler) APIExportRun(c *gin.Context) {
	run, ok := h.findRun(c)
	if !ok {
		return
	}

	if run.State != database.RunStateCompleted {
		c.JSON(http.StatusConflict, gin.H{"error": fmt.Sprintf("Run is %s", run.State)})
		return
	}

	rows, err := h.runRepo.GetResults(run.ID)
	if err != nil {
		slog.Error("Database error", "operation", "get_results", "run_id", run.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	report := &registry.Report{
		Domain:        run.Domain,
		ReferenceDate: run.ReferenceDate,
		Rows:          rows,
		Counts:        run.Counts,
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, report); err != nil {
		slog.Error("Export error", "operation", "write_report", "run_id", run.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build workbook"})
		return
	}

	filename := fmt.Sprintf("%s-%s.xlsx", run.Domain, run.CreatedAt.Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Header("X-Run-Rows", strconv.Itoa(len(rows)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// limitBody caps the request body of upload endpoints.
func (h *Handler) limitBody(c *gin.Context) {
	if h.uploadLimit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadLimit)
	}
	c.Next()
}

// runnableSource resolves the :name parameter and rejects sources with a
// run already in flight.
func (h *Handler) runnableSource(c *gin.Context) (*source.Config, bool) {
	name := c.Param("name")

	sourceConfig, err := h.configCache.GetConfig(name)
	if err != nil {
		slog.Error("Source configuration not found", "source", name, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Source configuration not found"})
		return nil, false
	}

	last, err := h.runRepo.GetLastRun(name)
	if err != nil {
		slog.Error("Database error", "operation", "get_last_run", "source", name, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if last != nil && (last.State == database.RunStatePending || last.State == database.RunStateRunning) {
		c.JSON(http.StatusConflict, gin.H{
			"error":  "A run is already in progress",
			"run_id": last.ID,
		})
		return nil, false
	}

	return sourceConfig, true
}

func (h *Handler) submit(c *gin.Context, sourceConfig *source.Config, referenceDate string, document []byte) {
	run, err := h.scheduler.Submit(sourceConfig, referenceDate, document)
	if err != nil {
		slog.Error("Error submitting run", "source", sourceConfig.Name, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Failed to enqueue run",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"id":             run.ID,
		"source":         sourceConfig.Name,
		"domain":         sourceConfig.Domain,
		"state":          run.State,
		"reference_date": run.ReferenceDate,
	})
}

func (h *Handler) findRun(c *gin.Context) (*database.Run, bool) {
	id := c.Param("id")

	run, err := h.runRepo.GetRun(id)
	if err != nil {
		slog.Error("Database error", "operation", "get_run", "run_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return nil, false
	}
	if run == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return nil, false
	}

	return run, true
}

// readUpload returns the content and filename of a multipart file field, or
// a nil slice when the field is absent.
func (h *Handler) readUpload(c *gin.Context, field string) ([]byte, string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, "", errUploadTooLarge
		}
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", nil
		}
		return nil, "", err
	}

	file, err := header.Open()
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", err
	}
	return data, header.Filename, nil
}

func (h *Handler) uploadError(c *gin.Context, field string, err error) {
	if errors.Is(err, errUploadTooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("File '%s' is too large", field)})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   fmt.Sprintf("Invalid '%s' upload", field),
		"details": err.Error(),
	})
}

// readGrid reads the first sheet of an uploaded workbook. A missing
// optional field yields a nil grid.
func (h *Handler) readGrid(c *gin.Context, field string, required bool) (registry.Grid, bool) {
	data, _, err := h.readUpload(c, field)
	if err != nil {
		h.uploadError(c, field, err)
		return nil, false
	}
	if data == nil {
		if required {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("Missing '%s' file", field)})
			return nil, false
		}
		return nil, true
	}

	grid, err := source.ReadGrid(bytes.NewReader(data), "")
	if err != nil {
		h.uploadError(c, field, err)
		return nil, false
	}
	if grid == nil {
		grid = registry.Grid{}
	}
	return grid, true
}

// filterRows applies the search query and a status filter given either as a
// tag or as a display label.
func filterRows(domain registry.Domain, rows []registry.Result, query, status string) []registry.Result {
	tag := registry.Status(status)
	if status == "" || !domain.Allows(tag) {
		return registry.FilterRows(rows, query, status)
	}

	tagged := make([]registry.Result, 0, len(rows))
	for _, row := range rows {
		if row.Status == tag {
			tagged = append(tagged, row)
		}
	}
	return registry.FilterRows(tagged, query, "")
}

func loanList(matches []registry.LoanMatch) []registry.LoanMatch {
	if matches == nil {
		return []registry.LoanMatch{}
	}
	return matches
}
