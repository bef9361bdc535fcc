package preview

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestSelectImageProducesPreview(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Select(model.KindImage, form.FileFromBytes("cat.jpg", []byte("meow")))
	require.NoError(t, m.Wait(waitCtx(t)))

	p, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "cat.jpg", p.FileName)
	assert.True(t, strings.HasPrefix(p.DataURL, "data:image/jpeg;base64,"))
	assert.Equal(t, "data:image/jpeg;base64,bWVvdw==", p.DataURL)
}

func TestNonImageKindEmpties(t *testing.T) {
	m := NewManager()
	defer m.Close()

	m.Select(model.KindImage, form.FileFromBytes("a.jpg", []byte("a")))
	require.NoError(t, m.Wait(waitCtx(t)))
	require.True(t, m.Previewing())

	m.Select(model.KindVideo, form.FileFromBytes("a.mp4", []byte("a")))
	assert.False(t, m.Previewing())

	m.Select(model.KindImage, form.FileFromBytes("b.jpg", []byte("b")))
	require.NoError(t, m.Wait(waitCtx(t)))
	m.Select(model.KindImage, nil)
	assert.False(t, m.Previewing())
}

// A slow first decode must never overwrite the second selection.
func TestLatestSelectionWins(t *testing.T) {
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []*Preview

	dec := func(ctx context.Context, f *form.File) (string, error) {
		if f.Name == "first.jpg" {
			<-release
			return "data:first", nil
		}
		return "data:second", nil
	}
	m := NewManager(WithDecoder(dec), OnChange(func(p *Preview) {
		mu.Lock()
		seen = append(seen, p)
		mu.Unlock()
	}))
	defer m.Close()

	m.Select(model.KindImage, form.FileFromBytes("first.jpg", nil))
	m.Select(model.KindImage, form.FileFromBytes("second.jpg", nil))
	require.NoError(t, m.Wait(waitCtx(t)))

	close(release)
	m.Close()

	p, ok := m.Current()
	if ok {
		t.Fatalf("expected Close to discard the preview, got %+v", p)
	}
	mu.Lock()
	defer mu.Unlock()
	for _, s := range seen {
		if s != nil {
			assert.Equal(t, "data:second", s.DataURL, "stale decode was applied")
		}
	}
	require.NotEmpty(t, seen)
	assert.Equal(t, "second.jpg", seen[0].FileName)
}

func TestSupersededDecodeIsCancelled(t *testing.T) {
	cancelled := make(chan struct{})
	dec := func(ctx context.Context, f *form.File) (string, error) {
		if f.Name == "slow.jpg" {
			<-ctx.Done()
			close(cancelled)
			return "", ctx.Err()
		}
		return "data:fast", nil
	}
	m := NewManager(WithDecoder(dec))
	defer m.Close()

	m.Select(model.KindImage, form.FileFromBytes("slow.jpg", nil))
	m.Select(model.KindImage, form.FileFromBytes("fast.jpg", nil))

	select {
	case <-cancelled:
	case <-time.After(5 * time.Second):
		t.Fatal("superseded decode was not cancelled")
	}
	require.NoError(t, m.Wait(waitCtx(t)))
	p, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "data:fast", p.DataURL)
}

func TestDecodeErrorLeavesEmpty(t *testing.T) {
	m := NewManager(WithDecoder(func(context.Context, *form.File) (string, error) {
		return "", errors.New("corrupt")
	}))
	defer m.Close()

	m.Select(model.KindImage, form.FileFromBytes("bad.jpg", nil))
	require.NoError(t, m.Wait(waitCtx(t)))
	assert.False(t, m.Previewing())
}

func TestClearDuringDecode(t *testing.T) {
	release := make(chan struct{})
	m := NewManager(WithDecoder(func(ctx context.Context, f *form.File) (string, error) {
		<-release
		return "data:x", nil
	}))

	m.Select(model.KindImage, form.FileFromBytes("x.jpg", nil))
	m.Clear()
	require.NoError(t, m.Wait(waitCtx(t)))
	close(release)
	m.Close()

	assert.False(t, m.Previewing())
}

func TestLateChangeIsNotDeliveredAfterNewerOne(t *testing.T) {
	var seen []*Preview
	m := NewManager(OnChange(func(p *Preview) { seen = append(seen, p) }))
	defer m.Close()

	older := &Preview{FileName: "first.jpg", DataURL: "data:first", Generation: 1}
	newer := &Preview{FileName: "second.jpg", DataURL: "data:second", Generation: 2}

	// The second selection's nil lands before the first decode's result.
	m.notify(2, nil)
	m.notify(1, older)
	m.notify(2, newer)

	require.Len(t, seen, 2)
	assert.Nil(t, seen[0])
	assert.Equal(t, "data:second", seen[1].DataURL)
}
