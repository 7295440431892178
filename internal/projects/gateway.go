package projects

import (
	"context"
	"errors"

	"github.com/cipherstudio/cipherstudio-backend/internal/editor"
)

// Gateway adapts the repository to the editor's persistence contract,
// translating the storage-level not-found into the editor's sentinel.
type Gateway struct {
	repo *Repo
}

func NewGateway(repo *Repo) *Gateway {
	return &Gateway{repo: repo}
}

func (g *Gateway) LoadFiles(ctx context.Context, ownerID, projectID string) (map[string]string, error) {
	p, err := g.repo.Get(ctx, ownerID, projectID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, editor.ErrProjectNotFound
		}
		return nil, err
	}
	return p.Files, nil
}

func (g *Gateway) SaveFiles(ctx context.Context, ownerID, projectID string, files map[string]string) error {
	err := g.repo.SaveFiles(ctx, ownerID, projectID, files)
	if errors.Is(err, ErrNotFound) {
		return editor.ErrProjectNotFound
	}
	return err
}
