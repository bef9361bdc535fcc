package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

func TestMimeFor(t *testing.T) {
	assert.Equal(t, "image/jpeg", MimeFor(model.KindImage))
	assert.Equal(t, "video/mp4", MimeFor(model.KindVideo))
	assert.Equal(t, "audio/mpeg", MimeFor(model.KindAudio))
	assert.Equal(t, "application/octet-stream", MimeFor(model.KindFile))
	assert.Equal(t, "application/octet-stream", MimeFor(model.KindText))
	assert.Equal(t, "application/octet-stream", MimeFor("Hologram"))
}

func TestEncodeThenRenderUsesMimeFor(t *testing.T) {
	for _, kind := range []model.Kind{model.KindImage, model.KindVideo, model.KindAudio, model.KindFile} {
		t.Run(string(kind), func(t *testing.T) {
			content, tag, err := Encode(kind, Input{
				File:        form.FileFromBytes("x.bin", []byte("payload")),
				Description: "something",
			})
			require.NoError(t, err)
			assert.Equal(t, kind, tag)
			assert.Equal(t, kind, content.Kind())

			res, err := ToRenderable(content)
			require.NoError(t, err)
			assert.Equal(t, MimeFor(kind), res.MediaType)
			assert.Equal(t, []byte("payload"), res.Data)
			assert.Contains(t, res.Locator, "blob:")
		})
	}
}

func TestEncodeValidation(t *testing.T) {
	_, _, err := Encode(model.KindText, Input{Text: " "})
	assert.ErrorIs(t, err, errs.Validation)

	_, _, err = Encode(model.KindImage, Input{Description: "no file"})
	assert.ErrorIs(t, err, errs.Validation)

	_, _, err = Encode(model.KindImage, Input{File: form.FileFromBytes("a", nil), Description: ""})
	assert.ErrorIs(t, err, errs.Validation)

	content, tag, err := Encode(model.KindText, Input{Text: "dear diary"})
	require.NoError(t, err)
	assert.Equal(t, model.KindText, tag)
	assert.Equal(t, "dear diary", content.(model.Text).Body())
}

func TestResourcesLifecycle(t *testing.T) {
	var freed []string
	r := NewResources(func(res Resource) { freed = append(freed, res.MemoryID) })

	img, _ := model.NewMedia(model.KindImage, []byte{1}, "a")
	vid, _ := model.NewMedia(model.KindVideo, []byte{2}, "b")
	m1 := model.Memory{ID: "1", Content: img, ContentType: model.KindImage}
	m2 := model.Memory{ID: "2", Content: vid, ContentType: model.KindVideo}

	r1, err := r.Render(m1)
	require.NoError(t, err)
	again, _ := r.Render(m1)
	assert.Equal(t, r1.Locator, again.Locator, "re-render must reuse the resource")

	_, err = r.Render(m2)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Len())

	_, err = r.Render(model.Memory{ID: "3", Content: model.NewText("t"), ContentType: model.KindText})
	assert.ErrorIs(t, err, ErrNotRenderable)

	r.Retain([]model.Memory{m2})
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []string{"1"}, freed)

	r.Forget("2")
	assert.Equal(t, 0, r.Len())

	_, _ = r.Render(m1)
	r.ReleaseAll()
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, []string{"1", "2", "1"}, freed)
}
