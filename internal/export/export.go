// Package export renders memories into downloadable files and share payloads.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rcliao/misoul/internal/model"
)

const (
	TextMediaType = "text/plain; charset=utf-8"
	JSONMediaType = "application/json"

	timestampLayout = "1/2/2006, 3:04:05 PM"
)

// File is a named payload ready to be written or downloaded.
type File struct {
	Name      string
	MediaType string
	Data      []byte
}

// WriteTo writes the file into dir and returns its path.
func (f File) WriteTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, f.Name)
	if err := os.WriteFile(path, f.Data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", f.Name, err)
	}
	return path, nil
}

// ExportText renders one block per memory, in input order:
//
//	Memory 1
//	3/14/2025, 9:26:53 AM
//	<text, or [Kind: description] for media>
//	Mood: Happy
//
// Timestamps are shown in now's location. The file is named after the owner and
// now's UTC date.
func ExportText(records []model.Memory, owner string, now time.Time) File {
	var b strings.Builder
	for i, m := range records {
		fmt.Fprintf(&b, "Memory %d\n", i+1)
		b.WriteString(m.CreatedAt().In(now.Location()).Format(timestampLayout))
		b.WriteByte('\n')
		b.WriteString(contentLine(m))
		b.WriteByte('\n')
		fmt.Fprintf(&b, "Mood: %s\n\n", m.Mood.Display())
	}
	return File{
		Name:      fileName(owner, now, "txt"),
		MediaType: TextMediaType,
		Data:      []byte(b.String()),
	}
}

func contentLine(m model.Memory) string {
	switch c := m.Content.(type) {
	case model.Text:
		return c.Body()
	case model.Media:
		return fmt.Sprintf("[%s: %s]", c.Kind(), c.Description())
	}
	return ""
}

// Archive is the JSON export document. Import accepts it or a bare array of memories.
type Archive struct {
	Owner      string         `json:"owner"`
	ExportedAt time.Time      `json:"exported_at"`
	Memories   []model.Memory `json:"memories"`
}

// ExportJSON renders the records, media bytes included, as an Archive.
func ExportJSON(records []model.Memory, owner string, now time.Time) (File, error) {
	if records == nil {
		records = []model.Memory{}
	}
	b, err := json.MarshalIndent(Archive{Owner: owner, ExportedAt: now.UTC(), Memories: records}, "", "  ")
	if err != nil {
		return File{}, fmt.Errorf("encode archive: %w", err)
	}
	return File{
		Name:      fileName(owner, now, "json"),
		MediaType: JSONMediaType,
		Data:      append(b, '\n'),
	}, nil
}

// ReadArchive decodes an Archive or a bare JSON array of memories.
func ReadArchive(r io.Reader) (Archive, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return Archive{}, fmt.Errorf("read archive: %w", err)
	}
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "[") {
		var memories []model.Memory
		if err := json.Unmarshal(data, &memories); err != nil {
			return Archive{}, fmt.Errorf("parse memories: %w", err)
		}
		return Archive{Memories: memories}, nil
	}
	var a Archive
	if err := json.Unmarshal(data, &a); err != nil {
		return Archive{}, fmt.Errorf("parse archive: %w", err)
	}
	return a, nil
}

func fileName(owner string, now time.Time, ext string) string {
	safe := strings.NewReplacer("/", "_", "\\", "_").Replace(owner)
	return fmt.Sprintf("%s_memories_%s.%s", safe, now.UTC().Format("2006-01-02"), ext)
}
