package service

import (
	"context"

	"joker-service/internal/service/admin"
	"joker-service/internal/service/archive"
	"joker-service/internal/service/game"
	"joker-service/internal/service/registry"
	"joker-service/internal/service/rules"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	Game     *game.Service
	Rules    *rules.Service
	Archive  *archive.Service
	Registry *registry.Registry
	Admin    *admin.Service
}

func NewContainer(db *gorm.DB, rdb *redis.Client) *Container {
	archiveSvc := archive.NewService(db)

	var reg *registry.Registry
	var registrar game.Registrar
	if rdb != nil {
		reg = registry.New(rdb)
		registrar = reg
	}

	return &Container{
		Game:     game.NewService(archiveSvc, registrar),
		Rules:    rules.NewService(db),
		Archive:  archiveSvc,
		Registry: reg,
		Admin:    admin.NewService(db),
	}
}

func (c *Container) Start(ctx context.Context) error {
	return c.Admin.EnsureDefaultAdmin(ctx)
}
