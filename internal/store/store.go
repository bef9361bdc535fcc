// Package store provides the record store interface and SQLite implementation.
package store

import (
	"context"

	"github.com/rcliao/misoul/internal/model"
)

// Store is the record store. Rejections the caller should show to the user are
// returned as *errs.Error with TypeDomain.
type Store interface {
	// SaveMemory stores a new memory and returns it with id, timestamp,
	// mood and summary assigned.
	SaveMemory(ctx context.Context, owner string, content model.Content, contentType model.Kind) (model.Memory, error)

	// EditMemory replaces the content of a memory. Id, owner and timestamp never change.
	EditMemory(ctx context.Context, id, text string, contentType model.Kind) error

	// DeleteMemory permanently removes a memory.
	DeleteMemory(ctx context.Context, id string) error

	// GetMemoriesByUser lists an owner's memories, oldest first.
	GetMemoriesByUser(ctx context.Context, owner string) ([]model.Memory, error)

	// Close closes the store.
	Close() error
}

type saveParams struct {
	Owner       string     `validate:"required,max=128"`
	ContentType model.Kind `validate:"required,oneof=Text Image Video Audio File"`
}

type editParams struct {
	ID          string     `validate:"required"`
	ContentType model.Kind `validate:"required,oneof=Text Image Video Audio File"`
}

var _ Store = (*SQLiteStore)(nil)
