// package formatter renders cached songs and sync history in various formats (text, table, CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/tunecache/internal/models"
	"github.com/desertthunder/tunecache/internal/shared"
	"github.com/sahilm/fuzzy"
)

// Format names an output format.
type Format string

const (
	FormatText     Format = "text"
	FormatTable    Format = "table"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// Formats lists every supported format.
func Formats() []Format {
	return []Format{FormatText, FormatTable, FormatCSV, FormatMarkdown, FormatJSON}
}

// ParseFormat maps a flag value onto a [Format]. "md" and "txt" are accepted as aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text", "txt":
		return FormatText, nil
	case "table":
		return FormatTable, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension used when writing f to disk.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatMarkdown:
		return ".md"
	case FormatJSON:
		return ".json"
	default:
		return ".txt"
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// SongsToCSV converts songs to CSV format with columns: TrackID, Title, Artist, Collection, Price, Genre, URL
func SongsToCSV(songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"TrackID", "Title", "Artist", "Collection", "Price", "Genre", "URL"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, song := range songs {
		record := []string{
			strconv.FormatInt(song.TrackID, 10),
			song.Title(),
			song.ArtistName,
			song.CollectionName,
			strconv.FormatFloat(song.TrackPrice, 'f', 2, 64),
			song.Genre.String(),
			models.Str(song.TrackViewURL),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// SongsToMarkdown converts one genre's songs to a Markdown document with artwork links
func SongsToMarkdown(genre models.Genre, songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", titleCase(genre.String()))
	fmt.Fprintf(&buf, "**Songs**: %d\n\n", len(songs))

	buf.WriteString("## Songs\n\n")
	for i, song := range songs {
		title := song.Title()
		if url := models.Str(song.TrackViewURL); url != "" {
			title = fmt.Sprintf("[%s](%s)", title, url)
		}
		collection := ""
		if song.CollectionName != "" {
			collection = fmt.Sprintf(" (%s)", song.CollectionName)
		}
		fmt.Fprintf(&buf, "%d. %s - %s%s [%s]\n", i+1, song.ArtistName, title, collection, song.Price())
	}

	return buf.Bytes(), nil
}

// SongsToText converts songs to plain text format
func SongsToText(genre models.Genre, songs []models.Song) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Genre: %s\n", genre)
	fmt.Fprintf(&buf, "Songs: %d\n\n", len(songs))

	for i, song := range songs {
		fmt.Fprintf(&buf, "%d. %s - %s\n", i+1, song.ArtistName, song.Title())
	}

	return buf.Bytes(), nil
}

// SongsToJSON converts songs to indented JSON
func SongsToJSON(songs []models.Song) ([]byte, error) {
	if songs == nil {
		songs = []models.Song{}
	}
	data, err := json.MarshalIndent(songs, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal songs: %w", err)
	}
	return append(data, '\n'), nil
}

// SongsToTable renders songs as a bordered terminal table
func SongsToTable(songs []models.Song) string {
	rows := make([][]string, len(songs))
	for i, song := range songs {
		rows[i] = []string{
			strconv.FormatInt(song.TrackID, 10),
			song.Title(),
			song.ArtistName,
			song.Price(),
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("ID", "TITLE", "ARTIST", "PRICE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String() + "\n"
}

// Songs renders songs in format
func Songs(format Format, genre models.Genre, songs []models.Song) ([]byte, error) {
	switch format {
	case FormatCSV:
		return SongsToCSV(songs)
	case FormatMarkdown:
		return SongsToMarkdown(genre, songs)
	case FormatJSON:
		return SongsToJSON(songs)
	case FormatTable:
		return []byte(SongsToTable(songs)), nil
	case FormatText, "":
		return SongsToText(genre, songs)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteSongs renders songs in format to w
func WriteSongs(w io.Writer, format Format, genre models.Genre, songs []models.Song) error {
	data, err := Songs(format, genre, songs)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write songs: %w", err)
	}
	return nil
}

// WriteExport writes one genre's songs into dir as {genre}{ext} and returns the file path.
//
// The directory is created when missing. The table format is written as plain text.
func WriteExport(dir string, format Format, genre models.Genre, songs []models.Song) (string, error) {
	if format == FormatTable {
		format = FormatText
	}
	if dir == "" {
		dir = fmt.Sprintf("tunecache_export_%d", time.Now().Unix())
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := Songs(format, genre, songs)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, genre.String()+format.Extension())
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

// songSource adapts songs to [fuzzy.Source], matching on "artist title".
type songSource []models.Song

func (s songSource) String(i int) string { return s[i].ArtistName + " " + s[i].Title() }
func (s songSource) Len() int            { return len(s) }

// Filter returns the songs fuzzily matching pattern, best match first. An empty pattern returns songs unchanged.
func Filter(songs []models.Song, pattern string) []models.Song {
	if strings.TrimSpace(pattern) == "" {
		return songs
	}

	matches := fuzzy.FindFrom(pattern, songSource(songs))
	out := make([]models.Song, len(matches))
	for i, m := range matches {
		out[i] = songs[m.Index]
	}
	return out
}

// RunsToTable renders sync history as a terminal table, most recent first
func RunsToTable(runs []models.SyncRun) string {
	rows := make([][]string, len(runs))
	for i, run := range runs {
		rows[i] = []string{
			run.Genre.String(),
			string(run.Outcome),
			strconv.Itoa(run.SongCount),
			run.FinishedAt.Local().Format(time.DateTime),
			run.Duration().Round(time.Millisecond).String(),
			run.Error,
		}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("GENRE", "OUTCOME", "SONGS", "FINISHED", "DURATION", "ERROR").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String() + "\n"
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
