package repository

import (
	"context"

	"promptregistry/internal/prompt/model"
)

// Querier is the storage contract the prompt service works against.
// Single-record lookups return (nil, nil) when nothing matches.
type Querier interface {
	FindActiveByName(ctx context.Context, name string) (*model.Prompt, error)
	FindByID(ctx context.Context, id int64) (*model.Prompt, error)
	FindActiveByCategory(ctx context.Context, category string) ([]model.Prompt, error)
	FindAllActive(ctx context.Context) ([]model.Prompt, error)
	// FindAllVersionsByName returns every version of name, newest first.
	FindAllVersionsByName(ctx context.Context, name string) ([]model.Prompt, error)
	FindLatestVersionByName(ctx context.Context, name string) (*model.Prompt, error)
	// Insert assigns ID, CreatedAt and UpdatedAt.
	Insert(ctx context.Context, p *model.Prompt) (*model.Prompt, error)
	// Update persists the Active flag of an existing record.
	Update(ctx context.Context, p *model.Prompt) (*model.Prompt, error)
}

// Store adds the transactional boundary used by mutations.
type Store interface {
	Querier
	// WithNameLock runs fn in one transaction that holds an exclusive lock on
	// name. Writers for the same name run one after another; fn's error
	// rolls everything back.
	WithNameLock(ctx context.Context, name string, fn func(q Querier) error) error
	Ping(ctx context.Context) error
}
