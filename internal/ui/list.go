package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/quirxsama/latte-sub000/internal/compatibility"
	"github.com/quirxsama/latte-sub000/internal/models"
)

var (
	_ list.Item = friendItem{}
	_ list.Item = requestItem{}
)

// friendItem wraps [compatibility.Match] to implement [list.Item].
type friendItem struct {
	rank  int
	match compatibility.Match
}

func (i friendItem) FilterValue() string { return i.match.User.DisplayName }
func (i friendItem) Title() string {
	return fmt.Sprintf("%d. %s  %s", i.rank, i.match.User.DisplayName, meter(i.match.Result.Compatibility))
}
func (i friendItem) Description() string {
	d := i.match.Result.Details
	desc := fmt.Sprintf("%d%% • %d artists, %d tracks, %d genres in common",
		i.match.Result.Compatibility, d.SharedArtists, d.SharedTracks, d.SharedGenres)
	if i.match.User.UserID != "" {
		desc = fmt.Sprintf("%s • %s", i.match.User.UserID, desc)
	}
	return desc
}

// requestItem wraps [models.PendingRequest] to implement [list.Item].
type requestItem struct {
	request models.PendingRequest
}

func (i requestItem) FilterValue() string { return i.request.Sender.DisplayName }
func (i requestItem) Title() string       { return i.request.Sender.DisplayName }
func (i requestItem) Description() string {
	return fmt.Sprintf("%s • sent %s", i.request.Sender.UserID, i.request.SentAt.Format("2006-01-02"))
}

// meter draws a ten-cell bar for a 0-100 score.
func meter(score int) string {
	filled := min(max(score, 0), 100) / 10
	return strings.Repeat("█", filled) + strings.Repeat("░", 10-filled)
}
