// Package model defines the core memory data types.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind is the discriminant of the content union.
type Kind string

const (
	KindText  Kind = "Text"
	KindImage Kind = "Image"
	KindVideo Kind = "Video"
	KindAudio Kind = "Audio"
	KindFile  Kind = "File"
)

// Kinds lists every content kind in display order.
var Kinds = []Kind{KindText, KindImage, KindVideo, KindAudio, KindFile}

// ParseKind resolves a kind name case-insensitively.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if strings.EqualFold(string(k), strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid kind %q (valid: Text, Image, Video, Audio, File)", s)
}

// Valid reports whether k is one of the five known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindText, KindImage, KindVideo, KindAudio, KindFile:
		return true
	}
	return false
}

// IsMedia is true for the binary kinds.
func (k Kind) IsMedia() bool {
	return k.Valid() && k != KindText
}

func (k Kind) String() string { return string(k) }

// Mood is the emotional label attached to a memory. The zero value means absent.
type Mood string

const (
	MoodHappy    Mood = "Happy"
	MoodSad      Mood = "Sad"
	MoodAngry    Mood = "Angry"
	MoodExcited  Mood = "Excited"
	MoodPeaceful Mood = "Peaceful"
	MoodNeutral  Mood = "Neutral"
	MoodAnxious  Mood = "Anxious"
	MoodLoved    Mood = "Loved"
	MoodGrateful Mood = "Grateful"
	MoodTired    Mood = "Tired"
)

// Moods lists the fixed mood enumeration.
var Moods = []Mood{
	MoodHappy, MoodSad, MoodAngry, MoodExcited, MoodPeaceful,
	MoodNeutral, MoodAnxious, MoodLoved, MoodGrateful, MoodTired,
}

// MoodColors maps each mood to its chart color.
var MoodColors = map[Mood]string{
	MoodHappy:    "#4CAF50",
	MoodSad:      "#2196F3",
	MoodAngry:    "#F44336",
	MoodExcited:  "#FFC107",
	MoodPeaceful: "#9C27B0",
	MoodNeutral:  "#607D8B",
	MoodAnxious:  "#FF5722",
	MoodLoved:    "#E91E63",
	MoodGrateful: "#00BCD4",
	MoodTired:    "#795548",
}

// DefaultMoodColor is used for moods missing from MoodColors.
const DefaultMoodColor = "#607D8B"

// ParseMood resolves a mood name case-insensitively. Empty input is the absent mood.
func ParseMood(s string) (Mood, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	for _, m := range Moods {
		if strings.EqualFold(string(m), s) {
			return m, nil
		}
	}
	return "", fmt.Errorf("invalid mood %q", s)
}

// NormalizeMood maps known mood names to their canonical spelling and keeps
// any other value as is. Unknown moods still chart, in DefaultMoodColor.
func NormalizeMood(s string) Mood {
	if m, err := ParseMood(s); err == nil {
		return m
	}
	return Mood(strings.TrimSpace(s))
}

// Display returns the mood label, Neutral when absent.
func (m Mood) Display() string {
	if m == "" {
		return string(MoodNeutral)
	}
	return string(m)
}

// Color returns the chart color for the mood.
func (m Mood) Color() string {
	if c, ok := MoodColors[m]; ok {
		return c
	}
	return DefaultMoodColor
}

// Memory is a single journal record as held by the record store.
type Memory struct {
	ID          string
	Owner       string
	Content     Content
	ContentType Kind
	Mood        Mood
	Summary     string
	Timestamp   int64 // nanoseconds since epoch, assigned by the store
}

// Validate checks that the content is present and agrees with ContentType.
func (m Memory) Validate() error {
	if m.Content == nil {
		return fmt.Errorf("memory %s: content is missing", m.ID)
	}
	if m.Content.Kind() != m.ContentType {
		return fmt.Errorf("memory %s: content is %s but contentType is %s", m.ID, m.Content.Kind(), m.ContentType)
	}
	return nil
}

// CreatedAt converts the store timestamp to a time.Time.
func (m Memory) CreatedAt() time.Time {
	return time.Unix(0, m.Timestamp)
}

// Description returns the text body for Text memories and the media description otherwise.
func (m Memory) Description() string {
	switch c := m.Content.(type) {
	case Text:
		return c.Body()
	case Media:
		return c.Description()
	}
	return ""
}

type memoryJSON struct {
	ID          string          `json:"id,omitempty"`
	Owner       string          `json:"owner"`
	Content     json.RawMessage `json:"content"`
	ContentType Tag             `json:"contentType"`
	Mood        Mood            `json:"mood,omitempty"`
	Summary     string          `json:"summary,omitempty"`
	Timestamp   int64           `json:"timestamp"`
}

// MarshalJSON encodes the record in the record store wire shape.
func (m Memory) MarshalJSON() ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	content, err := MarshalContent(m.Content)
	if err != nil {
		return nil, err
	}
	return json.Marshal(memoryJSON{
		ID:          m.ID,
		Owner:       m.Owner,
		Content:     content,
		ContentType: Tag(m.ContentType),
		Mood:        m.Mood,
		Summary:     m.Summary,
		Timestamp:   m.Timestamp,
	})
}

// UnmarshalJSON decodes a record and rejects content/contentType disagreement.
func (m *Memory) UnmarshalJSON(data []byte) error {
	var raw memoryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	content, err := UnmarshalContent(raw.Content)
	if err != nil {
		return err
	}
	out := Memory{
		ID:          raw.ID,
		Owner:       raw.Owner,
		Content:     content,
		ContentType: Kind(raw.ContentType),
		Mood:        NormalizeMood(string(raw.Mood)),
		Summary:     raw.Summary,
		Timestamp:   raw.Timestamp,
	}
	if err := out.Validate(); err != nil {
		return err
	}
	*m = out
	return nil
}
