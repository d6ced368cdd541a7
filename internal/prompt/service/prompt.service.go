package service

import (
	"context"
	"fmt"
	"strings"

	"promptregistry/internal/prompt/model"
	"promptregistry/internal/prompt/repository"
	"promptregistry/pkg/apperrors"
	"promptregistry/pkg/logger"
)

// PromptService owns the versioning policy: every change appends a new
// version, and a name never has more than one active version.
type PromptService struct {
	Repo repository.Store
}

func NewPromptService(repo repository.Store) *PromptService {
	return &PromptService{Repo: repo}
}

// CreatePrompt starts a new active chain for req.Name. If the name has
// inactive history the new record continues after its highest version.
func (s *PromptService) CreatePrompt(ctx context.Context, req model.CreatePromptRequest) (*model.Prompt, error) {
	logger.Sugar.Infof("Creating new prompt with name: %s", req.Name)

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	var created *model.Prompt
	err := s.Repo.WithNameLock(ctx, req.Name, func(q repository.Querier) error {
		existing, err := q.FindActiveByName(ctx, req.Name)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("%w: prompt with name '%s' already exists", apperrors.ErrAlreadyExists, req.Name)
		}

		version := 1
		latest, err := q.FindLatestVersionByName(ctx, req.Name)
		if err != nil {
			return err
		}
		if latest != nil {
			version = latest.Version + 1
		}

		created, err = q.Insert(ctx, &model.Prompt{
			Name:     req.Name,
			Content:  req.Content,
			Category: req.Category,
			Version:  version,
			Active:   active,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Sugar.Infof("Prompt created successfully with id: %d (version %d)", created.ID, created.Version)
	return created, nil
}

// UpdatePrompt supersedes the active version of name with a new one.
func (s *PromptService) UpdatePrompt(ctx context.Context, name string, req model.UpdatePromptRequest) (*model.Prompt, error) {
	logger.Sugar.Infof("Updating prompt with name: %s", name)

	var updated *model.Prompt
	err := s.Repo.WithNameLock(ctx, name, func(q repository.Querier) error {
		current, err := q.FindActiveByName(ctx, name)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound(name)
		}

		current.Active = false
		if _, err := q.Update(ctx, current); err != nil {
			return err
		}

		category := current.Category
		if req.Category != nil && strings.TrimSpace(*req.Category) != "" {
			category = *req.Category
		}
		active := true
		if req.Active != nil {
			active = *req.Active
		}

		updated, err = q.Insert(ctx, &model.Prompt{
			Name:     name,
			Content:  req.Content,
			Category: category,
			Version:  current.Version + 1,
			Active:   active,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	logger.Sugar.Infof("Prompt updated successfully. New version: %d", updated.Version)
	return updated, nil
}

func (s *PromptService) GetPromptByName(ctx context.Context, name string) (*model.Prompt, error) {
	logger.Sugar.Infof("Fetching prompt with name: %s", name)

	p, err := s.Repo.FindActiveByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, notFound(name)
	}
	return p, nil
}

// GetPromptByID returns the record regardless of whether it is active.
func (s *PromptService) GetPromptByID(ctx context.Context, id int64) (*model.Prompt, error) {
	logger.Sugar.Infof("Fetching prompt with id: %d", id)

	p, err := s.Repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("%w: prompt with id '%d' not found", apperrors.ErrNotFound, id)
	}
	return p, nil
}

func (s *PromptService) GetAllActivePrompts(ctx context.Context) ([]model.Prompt, error) {
	logger.Sugar.Info("Fetching all active prompts")
	return s.Repo.FindAllActive(ctx)
}

func (s *PromptService) GetPromptsByCategory(ctx context.Context, category string) ([]model.Prompt, error) {
	logger.Sugar.Infof("Fetching prompts by category: %s", category)
	return s.Repo.FindActiveByCategory(ctx, category)
}

// GetPromptVersionHistory lists every version of name, newest first.
func (s *PromptService) GetPromptVersionHistory(ctx context.Context, name string) ([]model.Prompt, error) {
	logger.Sugar.Infof("Fetching version history for prompt: %s", name)

	versions, err := s.Repo.FindAllVersionsByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: no versions found for prompt with name '%s'", apperrors.ErrNotFound, name)
	}
	return versions, nil
}

// DeletePrompt deactivates the active version. Nothing is removed and no new
// version is written.
func (s *PromptService) DeletePrompt(ctx context.Context, name string) error {
	logger.Sugar.Infof("Deactivating prompt with name: %s", name)

	err := s.Repo.WithNameLock(ctx, name, func(q repository.Querier) error {
		current, err := q.FindActiveByName(ctx, name)
		if err != nil {
			return err
		}
		if current == nil {
			return notFound(name)
		}
		current.Active = false
		_, err = q.Update(ctx, current)
		return err
	})
	if err != nil {
		return err
	}

	logger.Sugar.Infof("Prompt %s deactivated successfully", name)
	return nil
}

// GetCurrentPromptForAI is GetPromptByName for automated AI clients.
func (s *PromptService) GetCurrentPromptForAI(ctx context.Context, name string) (*model.Prompt, error) {
	logger.Sugar.Infof("AI Service fetching current prompt: %s", name)
	return s.GetPromptByName(ctx, name)
}

// Ping reports whether storage is reachable.
func (s *PromptService) Ping(ctx context.Context) error {
	return s.Repo.Ping(ctx)
}

func notFound(name string) error {
	return fmt.Errorf("%w: prompt with name '%s' not found", apperrors.ErrNotFound, name)
}
