// Package codec converts form input into tagged content and stored content into
// renderable resources.
package codec

import (
	"fmt"
	"strings"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

const octetStream = "application/octet-stream"

var mimeTypes = map[model.Kind]string{
	model.KindImage: "image/jpeg",
	model.KindVideo: "video/mp4",
	model.KindAudio: "audio/mpeg",
	model.KindFile:  octetStream,
}

// MimeFor returns the transport media type for a kind. It is a fixed lookup,
// the actual file contents are never sniffed.
func MimeFor(kind model.Kind) string {
	if m, ok := mimeTypes[kind]; ok {
		return m
	}
	return octetStream
}

// Input is the raw user input for one memory.
type Input struct {
	Text        string
	File        *form.File
	Description string
}

// InputFromState extracts the encodable part of a form.
func InputFromState(s form.State) Input {
	return Input{Text: s.Text, File: s.File, Description: s.Description}
}

// Encode builds the tagged content and its content-type tag.
func Encode(kind model.Kind, in Input) (model.Content, model.Kind, error) {
	if kind == model.KindText {
		if strings.TrimSpace(in.Text) == "" {
			return nil, "", errs.NewValidation("memory text is required")
		}
		return model.NewText(in.Text), model.KindText, nil
	}
	if !kind.IsMedia() {
		return nil, "", errs.NewValidation(fmt.Sprintf("unknown content kind %q", string(kind)))
	}
	if in.File == nil {
		return nil, "", errs.NewValidation(fmt.Sprintf("a file is required for %s memories", strings.ToLower(string(kind))))
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, "", errs.NewValidation(fmt.Sprintf("a description is required for %s memories", strings.ToLower(string(kind))))
	}
	data, err := in.File.ReadAll()
	if err != nil {
		return nil, "", fmt.Errorf("encode %s: %w", kind, err)
	}
	media, err := model.NewMedia(kind, data, in.Description)
	if err != nil {
		return nil, "", err
	}
	return media, kind, nil
}
