package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/quirxsama/latte-sub000/internal/formatter"
	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
	th "github.com/quirxsama/latte-sub000/internal/testing"
)

func reportFixture() (*models.User, []*models.User) {
	viewer := th.NewUser(1, "Ada", th.Stats([]string{"a1", "a2"}, []string{"t1"}, []string{"idm"}))
	friends := []*models.User{
		th.NewUser(2, "Bo", th.Stats([]string{"a9"}, []string{"t9"}, []string{"metal"})),
		th.NewUser(3, "Cy", th.Stats([]string{"a1", "a2"}, []string{"t1"}, []string{"idm"})),
		th.NewUser(4, "Di", th.Stats([]string{"a1"}, []string{"t9"}, []string{"idm"})),
	}
	return viewer, friends
}

func TestExportReports(t *testing.T) {
	tests := []struct {
		name      string
		format    string
		workers   int
		wantFiles []string
	}{
		{
			name:      "markdown with default workers",
			format:    formatter.FormatMarkdown,
			wantFiles: []string{"USER0001_USER0002.md", "USER0001_USER0003.md", "USER0001_USER0004.md"},
		},
		{
			name:      "csv with one worker",
			format:    formatter.FormatCSV,
			workers:   1,
			wantFiles: []string{"USER0001_USER0002.csv", "USER0001_USER0003.csv", "USER0001_USER0004.csv"},
		},
		{
			name:      "json with many workers",
			format:    formatter.FormatJSON,
			workers:   50,
			wantFiles: []string{"USER0001_USER0002.json", "USER0001_USER0003.json", "USER0001_USER0004.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viewer, friends := reportFixture()
			dir := t.TempDir()
			engine := NewStatsEngine(nil, nil, 0)

			progressCh := make(chan ProgressUpdate, 100)
			result, err := engine.ExportReports(context.Background(), progressCh, viewer, friends, ReportOpts{
				Format:     tt.format,
				OutputDir:  dir,
				NumWorkers: tt.workers,
			})
			close(progressCh)
			if err != nil {
				t.Fatalf("ExportReports() error = %v", err)
			}

			if result.Successful != 3 || result.Failed != 0 || result.TotalReports != 3 {
				t.Errorf("unexpected counts %+v", result)
			}
			for _, f := range tt.wantFiles {
				th.AssertFileExists(t, filepath.Join(dir, f))
			}

			if result.Results[0].DisplayName != "Cy" || result.Results[0].Compatibility != 100 {
				t.Errorf("expected Cy first with 100, got %+v", result.Results[0])
			}
			if result.Results[2].DisplayName != "Bo" || result.Results[2].Compatibility != 0 {
				t.Errorf("expected Bo last with 0, got %+v", result.Results[2])
			}

			var manifest ReportExportResult
			if err := json.Unmarshal([]byte(th.MustReadFile(t, result.ManifestPath)), &manifest); err != nil {
				t.Fatalf("invalid manifest: %v", err)
			}
			if manifest.Viewer.DisplayName != "Ada" || len(manifest.Results) != 3 || manifest.Format != tt.format {
				t.Errorf("unexpected manifest %+v", manifest)
			}

			updates := 0
			for u := range progressCh {
				if u.Phase != ExportReport {
					t.Errorf("unexpected phase %s", u.Phase)
				}
				updates++
			}
			if updates != 6 {
				t.Errorf("expected 6 progress updates, got %d", updates)
			}
		})
	}

	t.Run("no friends writes empty manifest", func(t *testing.T) {
		viewer, _ := reportFixture()
		dir := t.TempDir()

		result, err := NewStatsEngine(nil, nil, 0).ExportReports(context.Background(), nil, viewer, nil, ReportOpts{OutputDir: dir})
		if err != nil {
			t.Fatalf("ExportReports() error = %v", err)
		}
		if result.TotalReports != 0 || result.Format != formatter.FormatMarkdown {
			t.Errorf("unexpected result %+v", result)
		}
		if !strings.Contains(th.MustReadFile(t, filepath.Join(dir, manifestName)), `"results": []`) {
			t.Error("expected empty results array in manifest")
		}
	})

	t.Run("invalid format", func(t *testing.T) {
		viewer, friends := reportFixture()
		dir := filepath.Join(t.TempDir(), "never")

		_, err := NewStatsEngine(nil, nil, 0).ExportReports(context.Background(), nil, viewer, friends, ReportOpts{Format: "pdf", OutputDir: dir})
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
		if _, err := os.Stat(dir); !os.IsNotExist(err) {
			t.Error("output directory should not be created for an invalid format")
		}
	})

	t.Run("nil viewer", func(t *testing.T) {
		if _, err := NewStatsEngine(nil, nil, 0).ExportReports(context.Background(), nil, nil, nil, ReportOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("unwritable directory", func(t *testing.T) {
		viewer, friends := reportFixture()
		file := filepath.Join(t.TempDir(), "file")
		if err := os.WriteFile(file, []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}

		_, err := NewStatsEngine(nil, nil, 0).ExportReports(context.Background(), nil, viewer, friends, ReportOpts{OutputDir: filepath.Join(file, "sub")})
		if err == nil {
			t.Error("expected error creating directory under a file")
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		viewer, friends := reportFixture()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewStatsEngine(nil, nil, 0).ExportReports(ctx, nil, viewer, friends, ReportOpts{OutputDir: t.TempDir()})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}
