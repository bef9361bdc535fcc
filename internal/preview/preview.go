// Package preview manages the transient image preview shown while composing a memory.
package preview

import (
	"context"
	"encoding/base64"
	"sync"

	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/codec"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

// Preview is a decoded, displayable image.
type Preview struct {
	FileName   string
	DataURL    string
	Generation uint64
}

// Decoder turns a selected file into a displayable data representation.
type Decoder func(ctx context.Context, f *form.File) (string, error)

// DataURLDecoder reads the file and encodes it as a data: URL.
func DataURLDecoder(ctx context.Context, f *form.File) (string, error) {
	b, err := f.ReadAll()
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "data:" + codec.MimeFor(model.KindImage) + ";base64," + base64.StdEncoding.EncodeToString(b), nil
}

// Option configures a Manager.
type Option func(*Manager)

// WithDecoder replaces the default data URL decoder.
func WithDecoder(d Decoder) Option { return func(m *Manager) { m.decode = d } }

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option { return func(m *Manager) { m.logger = l } }

// OnChange registers a callback invoked with the new preview, or nil when the
// preview is discarded. Callbacks are delivered one at a time, in selection
// order, and must not call back into the Manager.
func OnChange(fn func(*Preview)) Option { return func(m *Manager) { m.onChange = fn } }

// Manager holds at most one preview. Only the latest selection's decode is
// ever applied; earlier in-flight decodes are cancelled and their results dropped.
type Manager struct {
	decode   Decoder
	logger   *zap.Logger
	onChange func(*Preview)

	mu       sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	current  *Preview
	done     chan struct{}
	inflight bool
	closed   bool
	wg       sync.WaitGroup

	// notifyMu serializes OnChange; delivered is the newest generation sent.
	notifyMu  sync.Mutex
	delivered uint64
}

// NewManager returns an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		decode: DataURLDecoder,
		logger: zap.NewNop(),
		done:   make(chan struct{}),
	}
	close(m.done)
	for _, o := range opts {
		o(m)
	}
	return m
}

// Select reacts to a file selection under the given content kind. Only an
// Image selection produces a preview; anything else empties the manager.
func (m *Manager) Select(kind model.Kind, f *form.File) {
	if kind != model.KindImage || f == nil {
		m.Clear()
		return
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.supersedeLocked()
	hadPreview := m.current != nil
	m.current = nil
	m.gen++
	gen := m.gen
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})
	m.inflight = true
	m.wg.Add(1)
	m.mu.Unlock()

	if hadPreview {
		m.notify(gen, nil)
	}
	m.logger.Debug("decoding preview", zap.String("file", f.Name), zap.Uint64("generation", gen))
	go m.run(ctx, gen, f)
}

func (m *Manager) run(ctx context.Context, gen uint64, f *form.File) {
	defer m.wg.Done()
	url, err := m.decode(ctx, f)

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		m.logger.Debug("dropping superseded preview", zap.Uint64("generation", gen))
		return
	}
	m.cancel()
	m.cancel = nil
	if err != nil {
		m.finishLocked()
		m.mu.Unlock()
		m.logger.Warn("preview decode failed", zap.String("file", f.Name), zap.Error(err))
		return
	}
	p := &Preview{FileName: f.Name, DataURL: url, Generation: gen}
	m.current = p
	m.finishLocked()
	m.mu.Unlock()

	m.notify(gen, p)
}

// Clear discards the preview and any in-flight decode. Call it when the file is
// cleared, the kind moves away from Image, or the form is submitted or cancelled.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.supersedeLocked()
	m.gen++
	gen := m.gen
	hadPreview := m.current != nil
	m.current = nil
	m.mu.Unlock()

	if hadPreview {
		m.notify(gen, nil)
	}
}

// Current returns the applied preview, if any.
func (m *Manager) Current() (Preview, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return Preview{}, false
	}
	return *m.current, true
}

// Previewing reports whether a preview is currently applied.
func (m *Manager) Previewing() bool {
	_, ok := m.Current()
	return ok
}

// Wait blocks until the latest selection has settled.
func (m *Manager) Wait(ctx context.Context) error {
	for {
		m.mu.Lock()
		done := m.done
		m.mu.Unlock()

		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}

		m.mu.Lock()
		same := done == m.done
		m.mu.Unlock()
		if same {
			return nil
		}
	}
}

// Close cancels any decode and waits for its goroutine to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.Clear()
	m.wg.Wait()
}

func (m *Manager) supersedeLocked() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.finishLocked()
}

func (m *Manager) finishLocked() {
	if m.inflight {
		close(m.done)
		m.inflight = false
	}
}

// notify delivers a change stamped with the generation that produced it.
// A change older than one already delivered is dropped.
func (m *Manager) notify(gen uint64, p *Preview) {
	if m.onChange == nil {
		return
	}
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()
	if gen < m.delivered {
		m.logger.Debug("dropping out-of-order preview change", zap.Uint64("generation", gen))
		return
	}
	m.delivered = gen
	m.onChange(p)
}
