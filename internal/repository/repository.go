// Package repository owns the active owner's memory cache and every mutation
// against the record store.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/rcliao/misoul/internal/codec"
	"github.com/rcliao/misoul/internal/errs"
	"github.com/rcliao/misoul/internal/form"
	"github.com/rcliao/misoul/internal/model"
)

// RecordStore is the remote record store. A returned *errs.Error of type
// TypeDomain is an explicit {err} answer from the store; any other error is a
// transport failure.
type RecordStore interface {
	SaveMemory(ctx context.Context, owner string, content model.Content, contentType model.Kind) (model.Memory, error)
	EditMemory(ctx context.Context, id, text string, contentType model.Kind) error
	DeleteMemory(ctx context.Context, id string) error
	GetMemoriesByUser(ctx context.Context, owner string) ([]model.Memory, error)
}

// ErrBusy is returned when a mutation is issued while another is outstanding.
var ErrBusy = errors.New("another request is still in progress")

// ErrStaleCache is returned when a mutation was saved by the store but the
// refetch that follows it failed. The cache still holds the previous records.
var ErrStaleCache = errors.New("memory updated but the list could not be refreshed")

// Option configures a Repository.
type Option func(*Repository)

// WithResources makes the repository release rendered media when memories
// leave the cache.
func WithResources(r *codec.Resources) Option {
	return func(repo *Repository) { repo.resources = r }
}

// Repository is the single source of truth for the active owner's memories.
type Repository struct {
	store     RecordStore
	logger    *zap.Logger
	resources *codec.Resources

	mu       sync.Mutex
	owner    string
	cache    []model.Memory
	mutating bool
	inflight int
	status   string
}

// New creates a repository with an empty cache and no owner.
func New(store RecordStore, logger *zap.Logger, opts ...Option) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Repository{
		store:  store,
		logger: logger.With(zap.String("component", "repository")),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Owner returns the active owner.
func (r *Repository) Owner() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.owner
}

// Memories returns a copy of the cache, newest first.
func (r *Repository) Memories() []model.Memory {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Memory, len(r.cache))
	copy(out, r.cache)
	return out
}

// Get returns a cached memory by id.
func (r *Repository) Get(id string) (model.Memory, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.cache {
		if m.ID == id {
			return m, true
		}
	}
	return model.Memory{}, false
}

// Busy reports whether any request is outstanding.
func (r *Repository) Busy() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inflight > 0
}

// Status is the last user-visible status message.
func (r *Repository) Status() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// SwitchOwner discards the cache and repopulates it for owner.
func (r *Repository) SwitchOwner(ctx context.Context, owner string) error {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return r.fail(errs.NewValidation("a username is required"))
	}
	r.mu.Lock()
	r.owner = owner
	r.cache = nil
	r.mu.Unlock()
	if r.resources != nil {
		r.resources.ReleaseAll()
	}
	return r.FetchAll(ctx)
}

// FetchAll replaces the cache with the store's records for the active owner,
// newest first. On failure the previous cache is kept.
func (r *Repository) FetchAll(ctx context.Context) error {
	owner := r.Owner()
	if owner == "" {
		return r.fail(errs.NewValidation("a username is required"))
	}
	r.begin()
	defer r.end()

	r.logger.Debug("fetching memories", zap.String("owner", owner))
	records, err := r.store.GetMemoriesByUser(ctx, owner)
	if err != nil {
		r.logger.Warn("fetch failed, keeping cached memories", zap.String("owner", owner), zap.Error(err))
		return r.fail(classify("getMemoriesByUser", err))
	}

	reversed := make([]model.Memory, len(records))
	for i, m := range records {
		reversed[len(records)-1-i] = m
	}

	r.mu.Lock()
	if r.owner != owner {
		r.mu.Unlock()
		r.logger.Debug("dropping fetch for previous owner", zap.String("owner", owner))
		return nil
	}
	r.cache = reversed
	r.mu.Unlock()

	if r.resources != nil {
		r.resources.Retain(reversed)
	}
	return nil
}

// Create validates the form, saves the memory and puts it at the front of the cache.
// Invalid input fails without contacting the store.
func (r *Repository) Create(ctx context.Context, s form.State) (model.Memory, error) {
	if s.IsEdit() {
		return model.Memory{}, r.fail(errs.NewValidation("form is editing an existing memory"))
	}
	owner := r.Owner()
	if owner == "" {
		return model.Memory{}, r.fail(errs.NewValidation("a username is required"))
	}
	if err := s.Validate(); err != nil {
		return model.Memory{}, r.fail(err)
	}
	content, tag, err := codec.Encode(s.Kind, codec.InputFromState(s))
	if err != nil {
		return model.Memory{}, r.fail(err)
	}

	if err := r.acquire(); err != nil {
		return model.Memory{}, err
	}
	defer r.release()

	r.logger.Debug("saving memory", zap.String("owner", owner), zap.String("kind", string(tag)))
	mem, err := r.store.SaveMemory(ctx, owner, content, tag)
	if err != nil {
		r.logger.Warn("save failed", zap.String("owner", owner), zap.Error(err))
		return model.Memory{}, r.fail(classify("saveMemory", err))
	}

	r.mu.Lock()
	if r.owner == owner {
		r.cache = append([]model.Memory{mem}, r.cache...)
	}
	r.status = "Memory saved successfully!"
	r.mu.Unlock()
	return mem, nil
}

// Edit updates the content of the memory the form targets, then refetches so
// fields derived by the store are picked up.
func (r *Repository) Edit(ctx context.Context, s form.State) error {
	if !s.IsEdit() {
		return r.fail(errs.NewValidation("no memory selected for editing"))
	}
	if err := s.Validate(); err != nil {
		return r.fail(err)
	}
	if _, ok := r.Get(s.EditTarget); !ok {
		return r.fail(errs.NewValidation("memory " + s.EditTarget + " is not in the current collection"))
	}

	if err := r.acquire(); err != nil {
		return err
	}
	defer r.release()

	r.logger.Debug("editing memory", zap.String("id", s.EditTarget), zap.String("kind", string(s.Kind)))
	if err := r.store.EditMemory(ctx, s.EditTarget, s.EditText(), s.Kind); err != nil {
		r.logger.Warn("edit failed", zap.String("id", s.EditTarget), zap.Error(err))
		return r.fail(classify("editMemory", err))
	}
	if r.resources != nil {
		r.resources.Forget(s.EditTarget)
	}
	if err := r.FetchAll(ctx); err != nil {
		r.setStatus("Memory updated; refresh failed.")
		return fmt.Errorf("%w: %w", ErrStaleCache, err)
	}
	r.setStatus("Memory updated successfully!")
	return nil
}

// Remove deletes a memory. Asking the user for confirmation is the caller's job.
func (r *Repository) Remove(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return r.fail(errs.NewValidation("a memory id is required"))
	}
	if err := r.acquire(); err != nil {
		return err
	}
	defer r.release()

	r.logger.Debug("deleting memory", zap.String("id", id))
	if err := r.store.DeleteMemory(ctx, id); err != nil {
		r.logger.Warn("delete failed", zap.String("id", id), zap.Error(err))
		return r.fail(classify("deleteMemory", err))
	}

	r.mu.Lock()
	kept := r.cache[:0:0]
	for _, m := range r.cache {
		if m.ID != id {
			kept = append(kept, m)
		}
	}
	r.cache = kept
	r.status = "Memory deleted successfully."
	r.mu.Unlock()

	if r.resources != nil {
		r.resources.Forget(id)
	}
	return nil
}

func (r *Repository) acquire() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutating {
		return ErrBusy
	}
	r.mutating = true
	r.inflight++
	return nil
}

func (r *Repository) release() {
	r.mu.Lock()
	r.mutating = false
	r.inflight--
	r.mu.Unlock()
}

func (r *Repository) begin() {
	r.mu.Lock()
	r.inflight++
	r.mu.Unlock()
}

func (r *Repository) end() {
	r.mu.Lock()
	r.inflight--
	r.mu.Unlock()
}

func (r *Repository) setStatus(s string) {
	r.mu.Lock()
	r.status = s
	r.mu.Unlock()
}

func (r *Repository) fail(err error) error {
	r.setStatus(errs.UserMessage(err))
	return err
}

// classify keeps validation and domain errors and turns everything else into a RemoteError.
func classify(op string, err error) error {
	if e, ok := errs.As(err); ok && (e.Type == errs.TypeDomain || e.Type == errs.TypeValidation) {
		return err
	}
	return errs.NewRemote(op, err)
}
