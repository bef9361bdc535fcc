// Package form holds the in-progress create/edit form as one immutable value.
package form

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
)

// State is a snapshot of the create/edit form. Every update returns a new State.
type State struct {
	Kind        model.Kind `validate:"kind"`
	Text        string
	File        *File
	Description string

	// EditTarget is the id of the memory being edited; empty when creating.
	EditTarget string
	// EditFrom is the kind of the memory being edited.
	EditFrom model.Kind
}

// New returns an empty Text form.
func New() State { return State{Kind: model.KindText} }

// WithKind switches the content kind.
func (s State) WithKind(k model.Kind) State { s.Kind = k; return s }

// WithText sets the text body.
func (s State) WithText(text string) State { s.Text = text; return s }

// WithFile sets or clears (nil) the selected file.
func (s State) WithFile(f *File) State { s.File = f; return s }

// WithDescription sets the media description.
func (s State) WithDescription(d string) State { s.Description = d; return s }

// Editing loads an existing memory into the form.
func (s State) Editing(m model.Memory) State {
	out := State{Kind: m.ContentType, EditTarget: m.ID, EditFrom: m.ContentType}
	if m.ContentType == model.KindText {
		out.Text = m.Description()
	} else {
		out.Description = m.Description()
	}
	return out
}

// IsEdit reports whether the form targets an existing memory.
func (s State) IsEdit() bool { return s.EditTarget != "" }

// Reset clears the form back to an empty Text form.
func (s State) Reset() State { return New() }

// EditText is the string sent with an edit: the text body for Text, the description otherwise.
func (s State) EditText() string {
	if s.Kind == model.KindText {
		return s.Text
	}
	return s.Description
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("kind", func(fl validator.FieldLevel) bool {
		return model.Kind(fl.Field().String()).Valid()
	})
	v.RegisterStructValidation(validateState, State{})
	return v
}

func validateState(sl validator.StructLevel) {
	s := sl.Current().Interface().(State)
	if !s.Kind.Valid() {
		return
	}
	if s.Kind == model.KindText {
		if strings.TrimSpace(s.Text) == "" {
			sl.ReportError(s.Text, "Text", "Text", "text_required", "")
		}
		return
	}
	if strings.TrimSpace(s.Description) == "" {
		sl.ReportError(s.Description, "Description", "Description", "description_required", "")
	}
	if !s.IsEdit() {
		if s.File == nil {
			sl.ReportError(s.File, "File", "File", "file_required", "")
		}
		return
	}
	// An edit carries no bytes, so it can only keep the media kind it started with.
	if s.File != nil {
		sl.ReportError(s.File, "File", "File", "file_on_edit", "")
	}
	if s.Kind != s.EditFrom {
		sl.ReportError(s.Kind, "Kind", "Kind", "kind_change", string(s.EditFrom))
	}
}

// Validate checks the fields required by the selected kind. It never touches the network.
func (s State) Validate() error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errs.NewValidation(err.Error())
	}
	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, formatFieldError(fe, s))
	}
	return errs.NewValidation(strings.Join(msgs, "; "))
}

func formatFieldError(fe validator.FieldError, s State) string {
	switch fe.Tag() {
	case "kind":
		return fmt.Sprintf("unknown content kind %q", string(s.Kind))
	case "text_required":
		return "memory text is required"
	case "description_required":
		return fmt.Sprintf("a description is required for %s memories", strings.ToLower(string(s.Kind)))
	case "file_required":
		return fmt.Sprintf("a file is required for %s memories", strings.ToLower(string(s.Kind)))
	case "file_on_edit":
		return "media files cannot be replaced by an edit; delete and re-create the memory"
	case "kind_change":
		return fmt.Sprintf("cannot change a %s memory to %s without new content", fe.Param(), string(s.Kind))
	default:
		return fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field()))
	}
}
