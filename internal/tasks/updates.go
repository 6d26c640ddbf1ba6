package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchProfile Phase = iota
	FetchTracks
	FetchArtists
	DeriveGenres
	SaveStats
	ExportReport
)

func (p Phase) String() string {
	switch p {
	case FetchProfile:
		return "fetch_profile"
	case FetchTracks:
		return "fetch_tracks"
	case FetchArtists:
		return "fetch_artists"
	case DeriveGenres:
		return "derive_genres"
	case SaveStats:
		return "save_stats"
	case ExportReport:
		return "export_report"
	default:
		return ""
	}
}

func fetchProfileUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    1,
		Total:   1,
		Message: "Fetching Spotify profile...",
	}
}

func foundProfileUpdate(name, code string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchProfile,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Signed in as %s (%s)", name, code),
	}
}

func fetchTracksUpdate(step, total int, timeRange string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching top tracks (%s)...", step, total, timeRange),
	}
}

func fetchArtistsUpdate(step, total int, timeRange string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchArtists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching top artists (%s)...", step, total, timeRange),
	}
}

func deriveGenresUpdate(artists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   DeriveGenres,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Deriving genres from %d artists...", artists),
	}
}

func saveStatsUpdate(tracks, artists, genres int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SaveStats,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Saved %d tracks, %d artists, %d genres", tracks, artists, genres),
	}
}

func exportingReportUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Comparing with %s...", step, total, name),
	}
}

func reportCompletedUpdate(step, total int, name string, score int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d%%)", step, total, name, score),
	}
}

func reportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportReport,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
