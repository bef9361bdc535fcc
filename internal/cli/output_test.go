package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/misoul/internal/codec"
	"github.com/rcliao/misoul/internal/model"
)

func TestToRowMedia(t *testing.T) {
	img, err := model.NewMedia(model.KindImage, []byte{1, 2, 3}, "harbor at dusk")
	require.NoError(t, err)
	m := model.Memory{ID: "m1", Owner: "ana", Content: img, ContentType: model.KindImage, Timestamp: 1}

	res := codec.NewResources(nil)
	row := toRow(m, res)
	assert.Equal(t, "harbor at dusk", row.Text)
	assert.Equal(t, "Neutral", row.Mood)
	assert.Equal(t, "image/jpeg", row.MediaType)
	assert.Equal(t, 3, row.MediaBytes)
	assert.True(t, strings.HasPrefix(row.Locator, "blob:"))
	assert.Equal(t, row.Locator, toRow(m, res).Locator)
	assert.Equal(t, 1, res.Len())
}

func TestImportState(t *testing.T) {
	s := importState(model.Memory{ID: "t", Content: model.NewText("hello"), ContentType: model.KindText})
	require.NoError(t, s.Validate())
	assert.Equal(t, "hello", s.Text)

	audio, err := model.NewMedia(model.KindAudio, []byte{7}, "rain")
	require.NoError(t, err)
	s = importState(model.Memory{ID: "a", Content: audio, ContentType: model.KindAudio})
	require.NoError(t, s.Validate())
	assert.False(t, s.IsEdit())
	data, err := s.File.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []byte{7}, data)
}

func TestPrintMemoriesText(t *testing.T) {
	formatFlag = "text"
	defer func() { formatFlag = "json" }()

	var buf bytes.Buffer
	printMemories(&buf, nil, nil)
	assert.Equal(t, "No memories yet.\n", buf.String())

	buf.Reset()
	printMemories(&buf, []model.Memory{{ID: "x", Content: model.NewText("line one\nline two"), ContentType: model.KindText, Mood: model.MoodLoved}}, nil)
	assert.Contains(t, buf.String(), "Loved")
	assert.Contains(t, buf.String(), "    line one\n    line two\n")
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.json", "nested/b.json", "nested/c.txt"} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o644))
	}

	got := expandPatterns([]string{
		filepath.Join(dir, "**", "*.json"),
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "missing.json"),
	})
	assert.Equal(t, []string{
		filepath.Join(dir, "a.json"),
		filepath.Join(dir, "nested", "b.json"),
		filepath.Join(dir, "missing.json"),
	}, got)
}
