// package formatter renders sync results and playlist listings to various
// formats (plain text, Markdown, CSV, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"syncopate/internal/models"
	"syncopate/internal/shared"
)

// ReportToText renders a sync result as a plain-text summary.
func ReportToText(result *models.SyncResult) []byte {
	var buf bytes.Buffer

	sourceName := "(unknown)"
	if result.SourcePlaylist != nil {
		sourceName = result.SourcePlaylist.Name
	}

	buf.WriteString(fmt.Sprintf("Sync: %s (%s) -> %s\n", sourceName, result.SourceService, result.DestinationService))
	if result.DestinationPlaylist != nil {
		buf.WriteString(fmt.Sprintf("Destination: %s\n", result.DestinationPlaylist.Name))
	}
	buf.WriteString(fmt.Sprintf("Mode: %s\n", result.Mode))
	buf.WriteString(fmt.Sprintf("Run ID: %s\n", result.RunID))
	buf.WriteString(fmt.Sprintf("Duration: %s\n\n", result.Duration.Round(time.Millisecond)))

	buf.WriteString(fmt.Sprintf("Tracks: %d total, %d matched, %d unmatched\n",
		result.TotalTracks, result.MatchedTracks, len(result.UnmatchedTracks)))

	if len(result.UnmatchedTracks) > 0 {
		buf.WriteString("\nUnmatched tracks:\n")
		for i, track := range result.UnmatchedTracks {
			line := fmt.Sprintf("%d. %s - %s", i+1, track.Artist, track.Name)
			if track.Album != "" {
				line += fmt.Sprintf(" (%s)", track.Album)
			}
			buf.WriteString(line + "\n")
		}
	}

	if len(result.Errors) > 0 {
		buf.WriteString("\nErrors:\n")
		for _, msg := range result.Errors {
			buf.WriteString("- " + msg + "\n")
		}
	}

	return buf.Bytes()
}

// ReportToMarkdown renders a sync result as a Markdown report.
func ReportToMarkdown(result *models.SyncResult) []byte {
	var buf bytes.Buffer

	sourceName := "(unknown)"
	if result.SourcePlaylist != nil {
		sourceName = result.SourcePlaylist.Name
	}

	buf.WriteString(fmt.Sprintf("# Sync Report: %s\n\n", sourceName))
	buf.WriteString(fmt.Sprintf("**From**: %s\n", result.SourceService))
	buf.WriteString(fmt.Sprintf("**To**: %s\n", result.DestinationService))
	if result.DestinationPlaylist != nil {
		buf.WriteString(fmt.Sprintf("**Destination playlist**: %s\n", result.DestinationPlaylist.Name))
	}
	buf.WriteString(fmt.Sprintf("**Mode**: %s\n", result.Mode))
	buf.WriteString(fmt.Sprintf("**Completed**: %s\n\n", result.CompletedAt.Format("2006-01-02 15:04:05 MST")))

	buf.WriteString("## Summary\n\n")
	buf.WriteString(fmt.Sprintf("| Total | Matched | Unmatched |\n|---|---|---|\n| %d | %d | %d |\n\n",
		result.TotalTracks, result.MatchedTracks, len(result.UnmatchedTracks)))

	if len(result.UnmatchedTracks) > 0 {
		buf.WriteString("## Unmatched Tracks\n\n")
		for i, track := range result.UnmatchedTracks {
			albumPart := ""
			if track.Album != "" {
				albumPart = fmt.Sprintf(" (%s)", track.Album)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artist, track.Name, albumPart))
		}
		buf.WriteString("\n")
	}

	if len(result.Errors) > 0 {
		buf.WriteString("## Errors\n\n")
		for _, msg := range result.Errors {
			buf.WriteString("- " + msg + "\n")
		}
	}

	return buf.Bytes()
}

// UnmatchedToCSV renders the unmatched tracks of a sync result as CSV with
// columns: Name, Artist, Album.
func UnmatchedToCSV(result *models.SyncResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Name", "Artist", "Album"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range result.UnmatchedTracks {
		if err := writer.Write([]string{track.Name, track.Artist, track.Album}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToJSON renders the full sync result as pretty-printed JSON.
func ReportToJSON(result *models.SyncResult) ([]byte, error) {
	return shared.MarshalJSON(result, true)
}

// PlaylistsToText renders a playlist listing as aligned plain text.
func PlaylistsToText(playlists []models.Playlist) []byte {
	var buf bytes.Buffer

	if len(playlists) == 0 {
		buf.WriteString("No playlists found.\n")
		return buf.Bytes()
	}

	for _, pl := range playlists {
		owner := ""
		if pl.Owner != "" {
			owner = " by " + pl.Owner
		}
		buf.WriteString(fmt.Sprintf("%s  %s%s (%d tracks)\n", pl.ID, pl.Name, owner, pl.TrackCount))
	}

	return buf.Bytes()
}

// WriteReport writes a sync result to {base}.{ext} in the chosen format.
// Supported formats: txt, md, csv, json. Returns the written path.
func WriteReport(result *models.SyncResult, base, format string) (string, error) {
	if base == "" {
		base = "sync_" + result.RunID
	}

	var data []byte
	var err error
	var ext string

	switch strings.ToLower(format) {
	case "", "txt", "text":
		data, ext = ReportToText(result), "txt"
	case "md", "markdown":
		data, ext = ReportToMarkdown(result), "md"
	case "csv":
		ext = "csv"
		data, err = UnmatchedToCSV(result)
	case "json":
		ext = "json"
		data, err = ReportToJSON(result)
	default:
		return "", fmt.Errorf("unsupported report format: %s", format)
	}
	if err != nil {
		return "", err
	}

	path := base + "." + ext
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}
