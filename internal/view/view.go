// Package view derives grouped, filtered and aggregated views from a memory list.
// Every function here is pure: inputs are never modified.
package view

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/rcliao/misoul/internal/model"
)

// DateGroup is the memories created on one calendar day.
type DateGroup struct {
	Date     time.Time      `json:"date"`
	Label    string         `json:"label"`
	Memories []model.Memory `json:"memories"`
}

// GroupByCalendarDate groups memories by local calendar day.
func GroupByCalendarDate(memories []model.Memory) []DateGroup {
	return GroupByCalendarDateIn(memories, time.Local)
}

// GroupByCalendarDateIn groups memories by calendar day in loc. Groups appear in
// the order their day is first seen; memories keep their input order.
func GroupByCalendarDateIn(memories []model.Memory, loc *time.Location) []DateGroup {
	var groups []DateGroup
	index := map[string]int{}
	for _, m := range memories {
		t := m.CreatedAt().In(loc)
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
		key := day.Format("2006-01-02")
		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, DateGroup{Date: day, Label: day.Format("Mon Jan 02 2006")})
		}
		groups[i].Memories = append(groups[i].Memories, m)
	}
	return groups
}

// matcher folds case with a Caser, which is stateful and must not be shared
// between goroutines.
type matcher struct {
	fold   cases.Caser
	needle string
}

func newMatcher(term string) *matcher {
	c := cases.Fold()
	return &matcher{fold: c, needle: c.String(term)}
}

func (mt *matcher) contains(s string) bool {
	return strings.Contains(mt.fold.String(s), mt.needle)
}

func (mt *matcher) match(m model.Memory) bool {
	if mt.needle == "" {
		return true
	}
	if mt.contains(m.Description()) {
		return true
	}
	if m.Mood != "" && mt.contains(string(m.Mood)) {
		return true
	}
	if m.Summary != "" && mt.contains(m.Summary) {
		return true
	}
	return false
}

// Matches reports whether a memory matches a search term, checking the text
// or media description, then the mood label, then the summary.
func Matches(m model.Memory, term string) bool {
	return newMatcher(term).match(m)
}

// FilterBySearchTerm keeps memories matching term, case-insensitively. An empty
// term keeps everything.
func FilterBySearchTerm(memories []model.Memory, term string) []model.Memory {
	mt := newMatcher(term)
	out := make([]model.Memory, 0, len(memories))
	for _, m := range memories {
		if mt.match(m) {
			out = append(out, m)
		}
	}
	return out
}

// MoodCount is one slice of the mood distribution chart.
type MoodCount struct {
	Mood  model.Mood `json:"mood"`
	Count int        `json:"count"`
	Color string     `json:"color"`
}

// MoodDistribution tallies moods, most frequent first. Memories without a mood
// are not counted. Ties keep the order moods were first seen.
func MoodDistribution(memories []model.Memory) []MoodCount {
	var counts []MoodCount
	index := map[model.Mood]int{}
	for _, m := range memories {
		if m.Mood == "" {
			continue
		}
		i, ok := index[m.Mood]
		if !ok {
			i = len(counts)
			index[m.Mood] = i
			counts = append(counts, MoodCount{Mood: m.Mood, Color: m.Mood.Color()})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(a, b int) bool { return counts[a].Count > counts[b].Count })
	return counts
}

// KindCount is the number of memories of one content kind.
type KindCount struct {
	Kind  model.Kind `json:"kind"`
	Count int        `json:"count"`
}

// CountsByKind tallies memories per content kind in model.Kinds order, skipping empty kinds.
func CountsByKind(memories []model.Memory) []KindCount {
	tally := map[model.Kind]int{}
	for _, m := range memories {
		tally[m.ContentType]++
	}
	var out []KindCount
	for _, k := range model.Kinds {
		if n := tally[k]; n > 0 {
			out = append(out, KindCount{Kind: k, Count: n})
		}
	}
	return out
}

// Dashboard is everything the memories screen renders for one search term.
type Dashboard struct {
	Term   string        `json:"term,omitempty"`
	Total  int           `json:"total"`
	Shown  int           `json:"shown"`
	Days   []DateGroup   `json:"days"`
	Moods  []MoodCount   `json:"moods"`
	ByKind []KindCount   `json:"by_kind"`
	Latest *model.Memory `json:"latest,omitempty"`
}

// BuildDashboard filters by term and derives the grouped and aggregated views
// from the filtered set.
func BuildDashboard(memories []model.Memory, term string, loc *time.Location) Dashboard {
	filtered := FilterBySearchTerm(memories, term)
	d := Dashboard{
		Term:   term,
		Total:  len(memories),
		Shown:  len(filtered),
		Days:   GroupByCalendarDateIn(filtered, loc),
		Moods:  MoodDistribution(filtered),
		ByKind: CountsByKind(filtered),
	}
	if len(filtered) > 0 {
		latest := filtered[0]
		d.Latest = &latest
	}
	return d
}
