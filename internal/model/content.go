package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/misoul/internal/errs"
)

// Content is the payload of a memory: exactly one of Text or Media.
type Content interface {
	Kind() Kind
	isContent()
}

// Text is the content of a Text memory.
type Text struct {
	body string
}

// NewText wraps a text body.
func NewText(body string) Text { return Text{body: body} }

func (Text) Kind() Kind { return KindText }
func (Text) isContent() {}

// Body returns the text.
func (t Text) Body() string { return t.body }

// Media is the content of an Image, Video, Audio or File memory.
type Media struct {
	kind        Kind
	data        []byte
	description string
}

// NewMedia builds media content. The kind must be a media kind and the
// description must not be blank.
func NewMedia(kind Kind, data []byte, description string) (Media, error) {
	if !kind.IsMedia() {
		return Media{}, errs.NewValidation(fmt.Sprintf("%q is not a media kind", kind))
	}
	if strings.TrimSpace(description) == "" {
		return Media{}, errs.NewValidation("a description is required for " + strings.ToLower(string(kind)) + " memories")
	}
	return Media{kind: kind, data: data, description: description}, nil
}

func (m Media) Kind() Kind { return m.kind }
func (Media) isContent()   {}

// Data returns the raw bytes. Callers must not modify the returned slice.
func (m Media) Data() []byte { return m.data }

// Description returns the user-supplied description.
func (m Media) Description() string { return m.description }

// WithDescription returns a copy with the description replaced.
func (m Media) WithDescription(description string) (Media, error) {
	return NewMedia(m.kind, m.data, description)
}

// MarshalContent encodes content in the tagged wire shape:
// {"Text":"..."} or {"Image":["<base64>","description"]}.
func MarshalContent(c Content) ([]byte, error) {
	switch v := c.(type) {
	case Text:
		return json.Marshal(map[string]string{string(KindText): v.body})
	case Media:
		return json.Marshal(map[string][2]any{string(v.kind): {v.data, v.description}})
	case nil:
		return nil, fmt.Errorf("marshal content: nil content")
	}
	return nil, fmt.Errorf("marshal content: unsupported type %T", c)
}

// UnmarshalContent decodes the tagged wire shape. Media bytes may be a base64
// string or an array of byte values.
func UnmarshalContent(data []byte) (Content, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return nil, fmt.Errorf("decode content: %w", err)
	}
	if len(obj) != 1 {
		return nil, fmt.Errorf("decode content: expected exactly one variant, got %d", len(obj))
	}
	for key, payload := range obj {
		kind := Kind(key)
		if !kind.Valid() {
			return nil, fmt.Errorf("decode content: unknown variant %q", key)
		}
		if kind == KindText {
			var body string
			if err := json.Unmarshal(payload, &body); err != nil {
				return nil, fmt.Errorf("decode text content: %w", err)
			}
			return NewText(body), nil
		}
		var tuple []json.RawMessage
		if err := json.Unmarshal(payload, &tuple); err != nil {
			return nil, fmt.Errorf("decode %s content: %w", key, err)
		}
		if len(tuple) != 2 {
			return nil, fmt.Errorf("decode %s content: expected [bytes, description]", key)
		}
		raw, err := decodeBytes(tuple[0])
		if err != nil {
			return nil, fmt.Errorf("decode %s bytes: %w", key, err)
		}
		var desc string
		if err := json.Unmarshal(tuple[1], &desc); err != nil {
			return nil, fmt.Errorf("decode %s description: %w", key, err)
		}
		return NewMedia(kind, raw, desc)
	}
	return nil, fmt.Errorf("decode content: empty")
}

func decodeBytes(data json.RawMessage) ([]byte, error) {
	trimmed := strings.TrimSpace(string(data))
	if !strings.HasPrefix(trimmed, "[") {
		var b []byte
		err := json.Unmarshal(data, &b)
		return b, err
	}
	var nums []int
	if err := json.Unmarshal(data, &nums); err != nil {
		return nil, err
	}
	b := make([]byte, len(nums))
	for i, n := range nums {
		if n < 0 || n > 255 {
			return nil, fmt.Errorf("byte %d out of range: %d", i, n)
		}
		b[i] = byte(n)
	}
	return b, nil
}

// Tag is a Kind in the tag-only wire shape {"Image":null}.
type Tag Kind

func (t Tag) MarshalJSON() ([]byte, error) {
	if !Kind(t).Valid() {
		return nil, fmt.Errorf("marshal content type: invalid kind %q", string(t))
	}
	return json.Marshal(map[string]any{string(t): nil})
}

func (t *Tag) UnmarshalJSON(data []byte) error {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("decode content type: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("decode content type: expected exactly one tag, got %d", len(obj))
	}
	for key := range obj {
		if !Kind(key).Valid() {
			return fmt.Errorf("decode content type: unknown tag %q", key)
		}
		*t = Tag(key)
	}
	return nil
}
