package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"

	"github.com/rcliao/misoul/internal/codec"
	"github.com/rcliao/misoul/internal/model"
	"github.com/rcliao/misoul/internal/view"
)

// memoryRow is the CLI rendering of a memory. Media bytes are never printed;
// a blob locator stands in for them.
type memoryRow struct {
	ID         string     `json:"id"`
	Kind       model.Kind `json:"kind"`
	Text       string     `json:"text"`
	Mood       string     `json:"mood"`
	MoodColor  string     `json:"mood_color"`
	Summary    string     `json:"summary,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	MediaType  string     `json:"media_type,omitempty"`
	MediaBytes int        `json:"media_bytes,omitempty"`
	Locator    string     `json:"locator,omitempty"`
}

func toRow(m model.Memory, res *codec.Resources) memoryRow {
	row := memoryRow{
		ID:        m.ID,
		Kind:      m.ContentType,
		Text:      m.Description(),
		Mood:      m.Mood.Display(),
		MoodColor: m.Mood.Color(),
		Summary:   m.Summary,
		CreatedAt: m.CreatedAt(),
	}
	if media, ok := m.Content.(model.Media); ok {
		row.MediaType = codec.MimeFor(media.Kind())
		row.MediaBytes = len(media.Data())
		if res != nil {
			if r, err := res.Render(m); err == nil {
				row.Locator = r.Locator
			}
		}
	}
	return row
}

func toRows(ms []model.Memory, res *codec.Resources) []memoryRow {
	rows := make([]memoryRow, 0, len(ms))
	for _, m := range ms {
		rows = append(rows, toRow(m, res))
	}
	return rows
}

func printJSON(w io.Writer, v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

func printRow(w io.Writer, r memoryRow) {
	fmt.Fprintf(w, "%s  %-5s  %-8s  %s\n", r.ID, r.Kind, r.Mood, humanize.Time(r.CreatedAt))
	if r.MediaBytes > 0 {
		fmt.Fprintf(w, "    [%s: %s] %s, %s\n", r.Kind, r.Text, r.MediaType, humanize.Bytes(uint64(r.MediaBytes)))
	} else {
		fmt.Fprintf(w, "    %s\n", indent(r.Text))
	}
	if r.Summary != "" && r.Summary != r.Text {
		fmt.Fprintf(w, "    summary: %s\n", r.Summary)
	}
}

func printMemories(w io.Writer, ms []model.Memory, res *codec.Resources) {
	rows := toRows(ms, res)
	if formatFlag == "text" {
		if len(rows) == 0 {
			fmt.Fprintln(w, "No memories yet.")
			return
		}
		for _, r := range rows {
			printRow(w, r)
		}
		return
	}
	printJSON(w, rows)
}

func printDays(w io.Writer, groups []view.DateGroup) {
	if formatFlag == "text" {
		for _, g := range groups {
			fmt.Fprintf(w, "%s (%s)\n", g.Label, english.Plural(len(g.Memories), "memory", "memories"))
			for _, m := range g.Memories {
				fmt.Fprintf(w, "  %s  %-8s  %s\n", m.CreatedAt().Format("15:04"), m.Mood.Display(), firstLine(m.Description()))
			}
		}
		return
	}
	type dayRow struct {
		Date     string      `json:"date"`
		Label    string      `json:"label"`
		Memories []memoryRow `json:"memories"`
	}
	out := make([]dayRow, 0, len(groups))
	for _, g := range groups {
		out = append(out, dayRow{Date: g.Date.Format("2006-01-02"), Label: g.Label, Memories: toRows(g.Memories, nil)})
	}
	printJSON(w, out)
}

func indent(s string) string {
	return strings.ReplaceAll(s, "\n", "\n    ")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
