package form

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/model"
)

func TestValidateCreate(t *testing.T) {
	img := FileFromBytes("a.jpg", []byte{1})

	tests := []struct {
		name    string
		state   State
		wantErr string
	}{
		{"text ok", New().WithText("hello"), ""},
		{"blank text", New().WithText("  \n"), "memory text is required"},
		{"image ok", New().WithKind(model.KindImage).WithFile(img).WithDescription("sunset"), ""},
		{"image without description", New().WithKind(model.KindImage).WithFile(img), "a description is required for image memories"},
		{"video without file", New().WithKind(model.KindVideo).WithDescription("clip"), "a file is required for video memories"},
		{"unknown kind", New().WithKind("Sticker"), `unknown content kind "Sticker"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.state.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errs.Validation)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestEditingLoadsRecord(t *testing.T) {
	media, err := model.NewMedia(model.KindAudio, []byte{1}, "birdsong")
	require.NoError(t, err)
	rec := model.Memory{ID: "m1", Content: media, ContentType: model.KindAudio}

	s := New().WithText("draft").Editing(rec)

	assert.True(t, s.IsEdit())
	assert.Equal(t, model.KindAudio, s.Kind)
	assert.Equal(t, "birdsong", s.Description)
	assert.Empty(t, s.Text)
	assert.Equal(t, "birdsong", s.EditText())
	assert.NoError(t, s.Validate())
}

func TestValidateEditKindChange(t *testing.T) {
	media, _ := model.NewMedia(model.KindImage, []byte{1}, "cat")
	rec := model.Memory{ID: "m1", Content: media, ContentType: model.KindImage}
	s := New().Editing(rec)

	err := s.WithKind(model.KindVideo).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot change a Image memory to Video")

	assert.NoError(t, s.WithKind(model.KindText).WithText("now just words").Validate())

	err = s.WithFile(FileFromBytes("b.jpg", []byte{2})).Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot be replaced by an edit")

	text := model.Memory{ID: "m2", Content: model.NewText("hi"), ContentType: model.KindText}
	err = New().Editing(text).WithKind(model.KindFile).WithDescription("doc").Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot change a Text memory to File")
}

func TestStateIsImmutable(t *testing.T) {
	base := New()
	_ = base.WithText("x").WithKind(model.KindImage)
	assert.Equal(t, model.KindText, base.Kind)
	assert.Empty(t, base.Text)
}

func TestFileFromBytes(t *testing.T) {
	f := FileFromBytes("n.txt", []byte("abc"))
	b, err := f.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))
	assert.EqualValues(t, 3, f.Size)

	var none *File
	_, err = none.ReadAll()
	assert.Error(t, err)
}
