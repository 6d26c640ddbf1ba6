// package formatter renders compatibility reports and friend rankings as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/models"
	"github.com/quirxsama/latte-sub000/internal/shared"
)

// Supported output formats.
const (
	FormatText     = "text"
	FormatMarkdown = "markdown"
	FormatCSV      = "csv"
	FormatJSON     = "json"
)

// Formats lists every supported output format.
var Formats = []string{FormatText, FormatMarkdown, FormatCSV, FormatJSON}

// Report is a compatibility comparison between two users.
type Report struct {
	User        models.UserSummary   `json:"user"`
	Other       models.UserSummary   `json:"other"`
	Result      compatibility.Result `json:"result"`
	GeneratedAt time.Time            `json:"generatedAt"`

	// labels maps Spotify ids to display names
	labels map[string]string
}

// NewReport compares user with other and keeps their track and artist names for display.
func NewReport(user, other *models.User, now time.Time) Report {
	labels := make(map[string]string)
	for _, u := range []*models.User{other, user} {
		for _, a := range u.MusicStats.TopArtists {
			labels[a.SpotifyID] = a.Name
		}
		for _, t := range u.MusicStats.TopTracks {
			name := t.Name
			if len(t.Artists) > 0 {
				name = t.Artists[0] + " - " + t.Name
			}
			labels[t.SpotifyID] = name
		}
	}

	return Report{
		User:        user.Summary(),
		Other:       other.Summary(),
		Result:      compatibility.Compare(user.MusicStats, other.MusicStats),
		GeneratedAt: now,
		labels:      labels,
	}
}

// label returns the display name for id, or id itself.
func (r Report) label(id string) string {
	if name, ok := r.labels[id]; ok && name != "" {
		return name
	}
	return id
}

func (r Report) labelAll(ids []string) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = r.label(id)
	}
	return out
}

// ValidateFormat returns [shared.ErrInvalidArgument] for unsupported formats.
func ValidateFormat(format string) error {
	if !slices.Contains(Formats, format) {
		return fmt.Errorf("%w: unsupported format %q (use %s)", shared.ErrInvalidArgument, format, strings.Join(Formats, ", "))
	}
	return nil
}

// Extension returns the file extension for format, including the dot.
func Extension(format string) string {
	switch format {
	case FormatMarkdown:
		return ".md"
	case FormatCSV:
		return ".csv"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

// Render converts r to format.
func Render(r Report, format string) ([]byte, error) {
	switch format {
	case FormatText, "":
		return ReportToText(r)
	case FormatMarkdown:
		return ReportToMarkdown(r)
	case FormatCSV:
		return ReportToCSV(r)
	case FormatJSON:
		return json.MarshalIndent(r, "", "  ")
	default:
		return nil, ValidateFormat(format)
	}
}

// ReportToText renders a report for the terminal.
func ReportToText(r Report) ([]byte, error) {
	var buf bytes.Buffer
	d := r.Result.Details

	buf.WriteString(fmt.Sprintf("%s & %s: %d%% compatible\n\n", r.User.DisplayName, r.Other.DisplayName, r.Result.Compatibility))
	buf.WriteString(fmt.Sprintf("Artists: %3d%% (%d shared)\n", d.ArtistScore, d.SharedArtists))
	buf.WriteString(fmt.Sprintf("Tracks:  %3d%% (%d shared)\n", d.TrackScore, d.SharedTracks))
	buf.WriteString(fmt.Sprintf("Genres:  %3d%% (%d shared)\n", d.GenreScore, d.SharedGenres))

	writeList := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		buf.WriteString(fmt.Sprintf("\n%s:\n", title))
		for i, item := range items {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, item))
		}
	}
	writeList("Shared artists", r.labelAll(r.Result.SharedContent.Artists))
	writeList("Shared tracks", r.labelAll(r.Result.SharedContent.Tracks))
	writeList("Shared genres", r.Result.SharedContent.Genres)

	return buf.Bytes(), nil
}

// ReportToMarkdown renders a report as a Markdown document.
func ReportToMarkdown(r Report) ([]byte, error) {
	var buf bytes.Buffer
	d := r.Result.Details

	buf.WriteString(fmt.Sprintf("# %s & %s\n\n", r.User.DisplayName, r.Other.DisplayName))
	buf.WriteString(fmt.Sprintf("**Compatibility**: %d%%\n", r.Result.Compatibility))
	if !r.GeneratedAt.IsZero() {
		buf.WriteString(fmt.Sprintf("**Generated**: %s\n", r.GeneratedAt.Format(time.RFC3339)))
	}

	buf.WriteString("\n| Dimension | Score | Shared |\n|---|---|---|\n")
	buf.WriteString(fmt.Sprintf("| Artists | %d%% | %d |\n", d.ArtistScore, d.SharedArtists))
	buf.WriteString(fmt.Sprintf("| Tracks | %d%% | %d |\n", d.TrackScore, d.SharedTracks))
	buf.WriteString(fmt.Sprintf("| Genres | %d%% | %d |\n", d.GenreScore, d.SharedGenres))

	writeSection := func(title string, items []string) {
		if len(items) == 0 {
			return
		}
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", title))
		for _, item := range items {
			buf.WriteString(fmt.Sprintf("- %s\n", item))
		}
	}
	writeSection("Shared Artists", r.labelAll(r.Result.SharedContent.Artists))
	writeSection("Shared Tracks", r.labelAll(r.Result.SharedContent.Tracks))
	writeSection("Shared Genres", r.Result.SharedContent.Genres)

	return buf.Bytes(), nil
}

// ReportToCSV renders a report with columns: Kind, ID, Name. The first rows carry the scores.
func ReportToCSV(r Report) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	d := r.Result.Details
	records := [][]string{
		{"Kind", "ID", "Name"},
		{"compatibility", "", strconv.Itoa(r.Result.Compatibility)},
		{"artist_score", "", strconv.Itoa(d.ArtistScore)},
		{"track_score", "", strconv.Itoa(d.TrackScore)},
		{"genre_score", "", strconv.Itoa(d.GenreScore)},
	}
	for _, a := range r.Result.SharedContent.Artists {
		records = append(records, []string{"artist", a, r.label(a)})
	}
	for _, t := range r.Result.SharedContent.Tracks {
		records = append(records, []string{"track", t, r.label(t)})
	}
	for _, g := range r.Result.SharedContent.Genres {
		records = append(records, []string{"genre", g, g})
	}

	if err := writer.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write CSV records: %w", err)
	}
	return buf.Bytes(), nil
}

// Ranking renders friends ordered by compatibility.
func Ranking(matches []compatibility.Match, format string) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case FormatText, "":
		for i, m := range matches {
			buf.WriteString(fmt.Sprintf("%2d. %-24s %3d%%  %s\n", i+1, m.User.DisplayName, m.Result.Compatibility, m.User.UserID))
		}
	case FormatMarkdown:
		buf.WriteString("| # | Friend | Code | Compatibility |\n|---|---|---|---|\n")
		for i, m := range matches {
			buf.WriteString(fmt.Sprintf("| %d | %s | %s | %d%% |\n", i+1, m.User.DisplayName, m.User.UserID, m.Result.Compatibility))
		}
	case FormatCSV:
		writer := csv.NewWriter(&buf)
		if err := writer.Write([]string{"Rank", "UserID", "DisplayName", "Compatibility"}); err != nil {
			return nil, fmt.Errorf("failed to write CSV headers: %w", err)
		}
		for i, m := range matches {
			record := []string{strconv.Itoa(i + 1), m.User.UserID, m.User.DisplayName, strconv.Itoa(m.Result.Compatibility)}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		writer.Flush()
		if err := writer.Error(); err != nil {
			return nil, fmt.Errorf("CSV writer error: %w", err)
		}
	case FormatJSON:
		if matches == nil {
			matches = []compatibility.Match{}
		}
		return json.MarshalIndent(matches, "", "  ")
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}

	return buf.Bytes(), nil
}

// Write renders r and writes it to w.
func Write(w io.Writer, r Report, format string) error {
	data, err := Render(r, format)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// WriteFile writes r to path, creating parent directories.
//
// An empty path defaults to {user}_{other}{ext} in the working directory.
func WriteFile(r Report, format, path string) (string, error) {
	if path == "" {
		path = ReportFilename(r, format)
	}

	data, err := Render(r, format)
	if err != nil {
		return "", err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	return path, nil
}

// ReportFilename returns the default file name for a report.
func ReportFilename(r Report, format string) string {
	return fmt.Sprintf("%s_%s%s", r.User.UserID, r.Other.UserID, Extension(format))
}

// WriteJSONFile writes v as indented JSON to path.
func WriteJSONFile(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}
