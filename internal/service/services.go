package service

import (
	"context"

	"github.com/deppfellow/wikitype-api/internal/dao"
	"github.com/deppfellow/wikitype-api/internal/repository"
	"github.com/deppfellow/wikitype-api/internal/server"
)

type Services struct {
	Auth      *AuthService
	Exercises dao.Pool
}

func NewService(ctx context.Context, s *server.Server, repos *repository.Repositories) (*Services, error) {
	authService, err := NewAuthService(ctx, s)
	if err != nil {
		return nil, err
	}

	return &Services{
		Auth:      authService,
		Exercises: repos.Exercises,
	}, nil
}
