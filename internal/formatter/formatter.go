// package formatter provides functions to export roast data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/roastx/internal/models"
	"github.com/desertthunder/roastx/internal/shared"
)

// Format is an export file format.
type Format string

const (
	Markdown Format = "markdown"
	Text     Format = "text"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists every supported [Format].
func Formats() []Format { return []Format{Markdown, Text, CSV, JSON} }

// ParseFormat accepts a format name or its file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")) {
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt":
		return Text, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, s)
	}
}

// Extension is the file extension for f, with the dot.
func (f Format) Extension() string {
	switch f {
	case Markdown:
		return ".md"
	case Text:
		return ".txt"
	case CSV:
		return ".csv"
	default:
		return ".json"
	}
}

// Export renders roast in format f.
func Export(roast *models.Roast, f Format) ([]byte, error) {
	switch f {
	case Markdown:
		return ExportToMarkdown(roast, "")
	case Text:
		return ExportToText(roast)
	case CSV:
		return ExportToCSV(roast)
	case JSON:
		return ToJSON(roast)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, f)
	}
}

func entryName(e models.Entry) string {
	if e.Artist != "" {
		return fmt.Sprintf("%s - %s", e.Artist, e.Name)
	}
	return e.Name
}

func sideName(s models.Side) string {
	if s.Sub != "" {
		return fmt.Sprintf("%s (%s)", s.Name, s.Sub)
	}
	return s.Name
}

// ExportToCSV writes one row per ranked artist, track and quirky pick with
// columns: Category, Rank, Name, Artist, Partner, Description.
//
// Partner holds the second user's pick for duo records.
func ExportToCSV(roast *models.Roast) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Category", "Rank", "Name", "Artist", "Partner", "Description"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	rows := rankingRows("artist", roast.Artists)
	rows = append(rows, rankingRows("track", roast.Tracks)...)
	if q := roast.Quirky; q.Entry != nil {
		rows = append(rows, []string{"quirky", "1", q.Entry.Name, q.Entry.Artist, "", q.Desc})
	} else if q.Comparison != nil {
		rows = append(rows, []string{"quirky", "1", q.Comparison.Left.Name, "", q.Comparison.Right.Name, q.Desc})
	}

	for _, record := range rows {
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

func rankingRows(category string, r models.Ranking) [][]string {
	var rows [][]string
	for _, e := range r.Entries {
		rows = append(rows, []string{category, strconv.Itoa(e.Rank), e.Name, e.Artist, "", e.Desc})
	}
	for _, c := range r.Comparisons {
		rows = append(rows, []string{category, strconv.Itoa(c.Rank), c.Left.Name, c.Left.Sub, c.Right.Name, c.Desc})
	}
	return rows
}

func writeRanking(buf *bytes.Buffer, r models.Ranking) {
	for _, e := range r.Entries {
		buf.WriteString(fmt.Sprintf("%d. %s\n", e.Rank, entryName(e)))
		if e.Desc != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", e.Desc))
		}
	}
	for _, c := range r.Comparisons {
		buf.WriteString(fmt.Sprintf("%d. %s vs %s\n", c.Rank, sideName(c.Left), sideName(c.Right)))
		if c.Desc != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", c.Desc))
		}
	}
	if r.Empty() {
		buf.WriteString("_none_\n")
	}
}

// ExportToMarkdown converts a roast to Markdown with an optional cover image.
func ExportToMarkdown(roast *models.Roast, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", roast.Title()))

	if imageFilename != "" {
		buf.WriteString(fmt.Sprintf("![Cover](%s)\n\n", imageFilename))
	}

	buf.WriteString(fmt.Sprintf("**Record**: %s\n", roast.RecordID))
	buf.WriteString(fmt.Sprintf("**Time range**: %s\n\n", roast.TimeRange))

	buf.WriteString("## Top Artists\n\n")
	writeRanking(&buf, roast.Artists)

	buf.WriteString("\n## Top Tracks\n\n")
	writeRanking(&buf, roast.Tracks)

	buf.WriteString("\n## Top Genres\n\n")
	writeGenres(&buf, roast.Genres, roast.Partner)

	buf.WriteString("\n## Quirkiest Pick\n\n")
	switch q := roast.Quirky; {
	case q.Entry != nil:
		buf.WriteString(entryName(*q.Entry) + "\n")
	case q.Comparison != nil:
		buf.WriteString(fmt.Sprintf("%s vs %s\n", sideName(q.Comparison.Left), sideName(q.Comparison.Right)))
	}
	if roast.Quirky.Desc != "" {
		buf.WriteString("\n" + roast.Quirky.Desc + "\n")
	}

	buf.WriteString("\n")
	buf.Write(SummaryMarkdown(roast.Summary, roast.TimeRange, roast.Partner))

	return buf.Bytes(), nil
}

func writeGenres(buf *bytes.Buffer, g models.Genres, partner string) {
	if g.Duo {
		if partner == "" {
			partner = "partner"
		}
		buf.WriteString(fmt.Sprintf("- **you**: %s\n", strings.Join(g.Genres, ", ")))
		buf.WriteString(fmt.Sprintf("- **%s**: %s\n", partner, strings.Join(g.Partner, ", ")))
	} else {
		for _, genre := range g.Genres {
			buf.WriteString("- " + genre + "\n")
		}
	}
	if g.Desc != "" {
		buf.WriteString("\n" + g.Desc + "\n")
	}
}

// SummaryMarkdown renders the summary slide on its own, as served for download.
func SummaryMarkdown(s models.Summary, tr models.TimeRange, partner string) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("## Summary (%s)\n\n", tr))
	writeSummarySide(&buf, "", s)
	if s.Partner != nil {
		if partner == "" {
			partner = "partner"
		}
		buf.WriteString("\n")
		writeSummarySide(&buf, partner, *s.Partner)
	}
	if s.Narrative != "" {
		buf.WriteString("\n" + strings.TrimSpace(s.Narrative) + "\n")
	}
	return buf.Bytes()
}

func writeSummarySide(buf *bytes.Buffer, who string, s models.Summary) {
	if who != "" {
		buf.WriteString(fmt.Sprintf("### %s\n\n", who))
	}
	buf.WriteString(fmt.Sprintf("- **Artists**: %s\n", strings.Join(s.Artists, ", ")))
	buf.WriteString(fmt.Sprintf("- **Tracks**: %s\n", strings.Join(s.Tracks, ", ")))
	buf.WriteString(fmt.Sprintf("- **Genres**: %s\n", strings.Join(s.Genres, ", ")))
	if s.Quirky != "" {
		buf.WriteString(fmt.Sprintf("- **Quirky**: %s\n", s.Quirky))
	}
}

// ExportToText converts a roast to plain text format
func ExportToText(roast *models.Roast) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(roast.Title() + "\n\n")

	buf.WriteString("Top Artists:\n")
	writeRanking(&buf, roast.Artists)
	buf.WriteString("\nTop Tracks:\n")
	writeRanking(&buf, roast.Tracks)

	buf.WriteString(fmt.Sprintf("\nGenres: %s\n", strings.Join(roast.Genres.Genres, ", ")))
	if roast.Genres.Duo {
		buf.WriteString(fmt.Sprintf("Partner genres: %s\n", strings.Join(roast.Genres.Partner, ", ")))
	}
	if roast.Quirky.Desc != "" {
		buf.WriteString(fmt.Sprintf("Quirky: %s\n", roast.Quirky.Desc))
	}
	if n := strings.TrimSpace(roast.Summary.Narrative); n != "" {
		buf.WriteString("\n" + n + "\n")
	}

	return buf.Bytes(), nil
}

// ToJSON returns the whole roast as indented JSON.
func ToJSON(roast *models.Roast) ([]byte, error) {
	data, err := json.MarshalIndent(roast, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal roast: %w", err)
	}
	return data, nil
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// CoverImage returns the image of the roast's top artist, if any.
func CoverImage(roast *models.Roast) string {
	if len(roast.Artists.Entries) > 0 {
		return roast.Artists.Entries[0].Image
	}
	if len(roast.Artists.Comparisons) > 0 {
		return roast.Artists.Comparisons[0].Left.Image
	}
	return ""
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport exports a roast to Markdown format in a dedicated directory.
//
// Directory name defaults to the record ID. When withCover is set, the top
// artist's image is downloaded next to the README; a failed download only
// drops the cover.
func WriteMarkdownExport(roast *models.Roast, outputDir string, withCover bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = "roast-" + roast.RecordID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if url := CoverImage(roast); withCover && url != "" {
		if imageData, err := DownloadImage(url); err == nil {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ExportToMarkdown(roast, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteExport writes roast in format f to path.
//
// Defaults to roast-{record}{ext} as the filename.
func WriteExport(roast *models.Roast, f Format, path string) (string, error) {
	if path == "" {
		path = "roast-" + roast.RecordID + f.Extension()
	}

	data, err := Export(roast, f)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", f, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", f, err)
	}

	return path, nil
}
