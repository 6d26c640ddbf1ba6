package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/quirxsama/latte-sub000/internal/formatter"
	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

const manifestName = "report_manifest.json"

// ReportOpts contains configuration for bulk report exports.
type ReportOpts struct {
	Format     string // Report format: text, markdown, csv, json
	OutputDir  string // Base output directory (default: latte_reports_{epoch})
	NumWorkers int    // Concurrent workers (default: 4)
}

// ReportResult is the outcome for one friend.
type ReportResult struct {
	UserID        string `json:"userId"`
	DisplayName   string `json:"displayName"`
	Compatibility int    `json:"compatibility"`
	File          string `json:"file,omitempty"`
	Success       bool   `json:"success"`
	Error         error  `json:"-"`
	ErrorMessage  string `json:"error,omitempty"`
}

// ReportExportResult summarises a bulk export. Results are ordered by compatibility, highest first.
type ReportExportResult struct {
	Viewer          models.UserSummary `json:"viewer"`
	Format          string             `json:"format"`
	TotalReports    int                `json:"totalReports"`
	Successful      int                `json:"successful"`
	Failed          int                `json:"failed"`
	OutputDirectory string             `json:"outputDirectory"`
	ManifestPath    string             `json:"-"`
	Results         []ReportResult     `json:"results"`
}

// ExportReports compares viewer with every friend using a worker pool and writes one report per friend,
// followed by a JSON manifest summarising the run.
func (e *StatsEngine) ExportReports(
	ctx context.Context,
	prog chan<- ProgressUpdate,
	viewer *models.User,
	friends []*models.User,
	opts ReportOpts,
) (*ReportExportResult, error) {
	if viewer == nil {
		return nil, fmt.Errorf("%w: viewer", shared.ErrMissingArgument)
	}

	if opts.Format == "" {
		opts.Format = formatter.FormatMarkdown
	}
	if err := formatter.ValidateFormat(opts.Format); err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = fmt.Sprintf("latte_reports_%d", time.Now().Unix())
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 4
	}
	if opts.NumWorkers > 10 {
		opts.NumWorkers = 10
	}

	if err := os.MkdirAll(opts.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	result := &ReportExportResult{
		Viewer:          viewer.Summary(),
		Format:          opts.Format,
		TotalReports:    len(friends),
		OutputDirectory: opts.OutputDir,
		Results:         make([]ReportResult, 0, len(friends)),
	}

	jobs := make(chan *models.User, len(friends))
	results := make(chan ReportResult, len(friends))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go e.reportWorker(ctx, &wg, viewer, jobs, results, opts)
	}

	fed := make(chan struct{})
	go func() {
		defer close(fed)
		defer close(jobs)
		for i, f := range friends {
			if ctx.Err() != nil {
				return
			}
			e.sendProgress(prog, exportingReportUpdate(i+1, len(friends), f.DisplayName))
			jobs <- f
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	completed := 0
	for res := range results {
		completed++
		result.Results = append(result.Results, res)

		if res.Success {
			result.Successful++
			e.sendProgress(prog, reportCompletedUpdate(completed, len(friends), res.DisplayName, res.Compatibility))
		} else {
			result.Failed++
			e.sendProgress(prog, reportFailedUpdate(completed, len(friends), res.DisplayName, res.Error))
		}
	}

	<-fed

	if err := ctx.Err(); err != nil {
		return result, err
	}

	sort.SliceStable(result.Results, func(i, j int) bool {
		a, b := result.Results[i], result.Results[j]
		if a.Compatibility != b.Compatibility {
			return a.Compatibility > b.Compatibility
		}
		return a.DisplayName < b.DisplayName
	})

	manifestPath := filepath.Join(opts.OutputDir, manifestName)
	if err := formatter.WriteJSONFile(result, manifestPath); err != nil {
		return result, fmt.Errorf("export completed but failed to write manifest: %w", err)
	}
	result.ManifestPath = manifestPath
	return result, nil
}

// reportWorker writes reports for jobs until the channel closes or ctx is done.
func (e *StatsEngine) reportWorker(
	ctx context.Context,
	wg *sync.WaitGroup,
	viewer *models.User,
	jobs <-chan *models.User,
	results chan<- ReportResult,
	opts ReportOpts,
) {
	defer wg.Done()

	for friend := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}
		results <- e.writeReport(viewer, friend, opts)
	}
}

func (e *StatsEngine) writeReport(viewer, friend *models.User, opts ReportOpts) ReportResult {
	report := formatter.NewReport(viewer, friend, time.Now().UTC())
	res := ReportResult{
		UserID:        friend.UserID,
		DisplayName:   friend.DisplayName,
		Compatibility: report.Result.Compatibility,
	}

	path := filepath.Join(opts.OutputDir, formatter.ReportFilename(report, opts.Format))
	file, err := formatter.WriteFile(report, opts.Format, path)
	if err != nil {
		res.Error = err
		res.ErrorMessage = err.Error()
		return res
	}

	res.File = file
	res.Success = true
	return res
}
