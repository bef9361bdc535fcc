package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rcliao/misoul/internal/errs"
)

func TestNewMediaRequiresDescription(t *testing.T) {
	_, err := NewMedia(KindImage, []byte{1, 2}, "   ")
	if !errors.Is(err, errs.Validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := NewMedia(KindText, nil, "x"); err == nil {
		t.Error("expected Text to be rejected as a media kind")
	}
}

func TestMemoryWireShape(t *testing.T) {
	media, err := NewMedia(KindImage, []byte{0xff, 0xd8}, "beach")
	if err != nil {
		t.Fatal(err)
	}
	m := Memory{ID: "01H", Owner: "ana", Content: media, ContentType: KindImage, Mood: MoodHappy, Timestamp: 42}

	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	s := string(b)
	if !strings.Contains(s, `"content":{"Image":["/9g=","beach"]}`) {
		t.Errorf("unexpected content encoding: %s", s)
	}
	if !strings.Contains(s, `"contentType":{"Image":null}`) {
		t.Errorf("unexpected contentType encoding: %s", s)
	}

	var got Memory
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	gm, ok := got.Content.(Media)
	if !ok {
		t.Fatalf("expected Media, got %T", got.Content)
	}
	if !bytes.Equal(gm.Data(), []byte{0xff, 0xd8}) || gm.Description() != "beach" {
		t.Errorf("media mismatch: %v %q", gm.Data(), gm.Description())
	}
	if got.Mood != MoodHappy || got.Timestamp != 42 || got.ID != "01H" {
		t.Errorf("metadata mismatch: %+v", got)
	}
}

func TestUnmarshalContentAcceptsByteArray(t *testing.T) {
	c, err := UnmarshalContent([]byte(`{"Audio":[[1,2,255],"song"]}`))
	if err != nil {
		t.Fatal(err)
	}
	m := c.(Media)
	if !bytes.Equal(m.Data(), []byte{1, 2, 255}) {
		t.Errorf("got %v", m.Data())
	}

	if _, err := UnmarshalContent([]byte(`{"Audio":[[256],"song"]}`)); err == nil {
		t.Error("expected out-of-range byte to fail")
	}
	if _, err := UnmarshalContent([]byte(`{"Text":"a","Image":["","b"]}`)); err == nil {
		t.Error("expected two variants to fail")
	}
	if _, err := UnmarshalContent([]byte(`{"Sticker":"x"}`)); err == nil {
		t.Error("expected unknown variant to fail")
	}
}

func TestUnmarshalRejectsTagMismatch(t *testing.T) {
	raw := `{"id":"1","owner":"ana","content":{"Text":"hi"},"contentType":{"Video":null},"timestamp":1}`
	var m Memory
	if err := json.Unmarshal([]byte(raw), &m); err == nil {
		t.Fatal("expected content/contentType mismatch to fail")
	}
}

func TestMoodDisplayAndColor(t *testing.T) {
	var absent Mood
	if absent.Display() != "Neutral" {
		t.Errorf("expected Neutral, got %q", absent.Display())
	}
	if MoodLoved.Color() != "#E91E63" {
		t.Errorf("unexpected color %q", MoodLoved.Color())
	}
	if Mood("Bored").Color() != DefaultMoodColor {
		t.Error("expected default color for unknown mood")
	}
	if m, err := ParseMood("grateful"); err != nil || m != MoodGrateful {
		t.Errorf("ParseMood: %v %v", m, err)
	}
}

func TestUnmarshalKeepsUnknownMood(t *testing.T) {
	data := []byte(`[
		{"id":"1","owner":"ana","content":{"Text":"lake day"},"contentType":{"Text":null},"mood":"happy","timestamp":1},
		{"id":"2","owner":"ana","content":{"Text":"long queue"},"contentType":{"Text":null},"mood":"Bored","timestamp":2}
	]`)
	var got []Memory
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(got))
	}
	if got[0].Mood != MoodHappy {
		t.Errorf("expected known mood to be normalized, got %q", got[0].Mood)
	}
	if got[1].Mood != Mood("Bored") {
		t.Errorf("expected unknown mood to be kept, got %q", got[1].Mood)
	}
}

func TestResultEnvelope(t *testing.T) {
	b, _ := json.Marshal(Fail[Unit]("memory not found"))
	if string(b) != `{"err":"memory not found"}` {
		t.Errorf("got %s", b)
	}
	b, _ = json.Marshal(Ok(Unit{}))
	if string(b) != `{"ok":null}` {
		t.Errorf("got %s", b)
	}

	var r Result[Unit]
	if err := json.Unmarshal([]byte(`{"err":"nope"}`), &r); err != nil {
		t.Fatal(err)
	}
	if !r.Failed() || r.Err != "nope" {
		t.Errorf("expected failure, got %+v", r)
	}
	if err := json.Unmarshal([]byte(`{}`), &r); err == nil {
		t.Error("expected empty envelope to fail")
	}
}
