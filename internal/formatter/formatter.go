// package formatter renders songs to export formats (JSON, CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/flutenotes/internal/models"
	"github.com/desertthunder/flutenotes/internal/shared"
)

// Format names an export encoding.
type Format string

const (
	FormatJSON     Format = "json"
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
)

// Formats lists every supported format in display order.
var Formats = []Format{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ParseFormat accepts a format name or its common file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON, nil
	case "csv":
		return FormatCSV, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	case "text", "txt":
		return FormatText, nil
	default:
		return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, s)
	}
}

// Extension returns the file extension used for f, without the dot.
func (f Format) Extension() string {
	switch f {
	case FormatMarkdown:
		return "md"
	case FormatText:
		return "txt"
	default:
		return string(f)
	}
}

// Render encodes song in format f.
func Render(song models.Song, f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return ExportToJSON(song)
	case FormatCSV:
		return ExportToCSV(song)
	case FormatMarkdown:
		return ExportToMarkdown(song)
	case FormatText:
		return ExportToText(song)
	default:
		return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidFlag, f)
	}
}

// ExportToJSON renders the stored record shape, indented.
func ExportToJSON(song models.Song) ([]byte, error) {
	if song.Lines == nil {
		song.Lines = []models.Line{}
	}
	data, err := shared.MarshalJSON(song, true)
	if err != nil {
		return nil, fmt.Errorf("failed to encode song: %w", err)
	}
	return append(data, '\n'), nil
}

// ExportToCSV writes one row per line with columns: Line, Lyrics, Flute Notes
func ExportToCSV(song models.Song) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Line", "Lyrics", "Flute Notes"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, line := range song.Lines {
		if err := writer.Write([]string{strconv.Itoa(i + 1), line.Lyrics, line.FluteNotes}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportToMarkdown renders the song as a heading followed by a lyrics/notes table.
func ExportToMarkdown(song models.Song) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", song.Title)
	fmt.Fprintf(&buf, "**Lines**: %d\n", len(song.Lines))
	if !song.UpdatedAt.IsZero() {
		fmt.Fprintf(&buf, "**Last modified**: %s\n", song.UpdatedAt.UTC().Format("2006-01-02"))
	}
	buf.WriteString("\n")

	if len(song.Lines) == 0 {
		buf.WriteString("_No lines yet._\n")
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Lyrics | Flute Notes |\n")
	buf.WriteString("|---|--------|-------------|\n")
	for i, line := range song.Lines {
		fmt.Fprintf(&buf, "| %d | %s | %s |\n", i+1, markdownCell(line.Lyrics), markdownCell(line.FluteNotes))
	}
	return buf.Bytes(), nil
}

// ExportToText renders each line as lyrics with the notation indented beneath it.
func ExportToText(song models.Song) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Song: %s\n", song.Title)
	fmt.Fprintf(&buf, "Lines: %d\n\n", len(song.Lines))

	for i, line := range song.Lines {
		fmt.Fprintf(&buf, "%d. %s\n", i+1, line.Lyrics)
		if line.FluteNotes != "" {
			fmt.Fprintf(&buf, "   %s\n", line.FluteNotes)
		}
	}
	return buf.Bytes(), nil
}

// Filename returns the default export file name for song: {id}.{ext}
func Filename(song models.Song, f Format) string {
	return fmt.Sprintf("%s.%s", song.ID, f.Extension())
}

// WriteExport renders song in format f and writes it to path.
//
// Defaults to [Filename] in the working directory.
func WriteExport(song models.Song, f Format, path string) (string, error) {
	if path == "" {
		path = Filename(song, f)
	}

	data, err := Render(song, f)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write export file: %w", err)
	}
	return path, nil
}

func markdownCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}
