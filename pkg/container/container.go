package container

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"grimoire-backend/internal/config"
	bookhandler "grimoire-backend/internal/domains/book/handler"
	bookrepo "grimoire-backend/internal/domains/book/repository"
	bookservice "grimoire-backend/internal/domains/book/service"
	userhandler "grimoire-backend/internal/domains/user/handler"
	userrepo "grimoire-backend/internal/domains/user/repository"
	userservice "grimoire-backend/internal/domains/user/service"
	infracache "grimoire-backend/internal/infrastructure/cache"
	"grimoire-backend/internal/infrastructure/database"
	"grimoire-backend/internal/infrastructure/storage"
	"grimoire-backend/pkg/jwt"
)

// Container wires infrastructure and domains together.
// Construction order: infrastructure, repositories, services, handlers.
type Container struct {
	Config *config.Config

	DB             *database.PostgresDB
	Cache          *infracache.RedisCache
	Storage        *storage.MinIOStorage
	ImageProcessor *storage.ImageProcessor
	JWTManager     *jwt.Manager

	BookRepository bookrepo.RepositoryInterface
	UserRepository userrepo.RepositoryInterface

	BookService   bookservice.ServiceInterface
	RatingService bookservice.RatingServiceInterface
	UserService   userservice.ServiceInterface

	BookHandler *bookhandler.BookHandler
	UserHandler *userhandler.UserHandler
}

func New(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	// 1. Infrastructure
	c.DB = database.NewPostgresDB(&cfg.Database)
	if err := c.DB.Connect(ctx); err != nil {
		return nil, fmt.Errorf("database init failed: %w", err)
	}

	c.Cache = infracache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Cache.Ping(ctx); err != nil {
		c.DB.Close()
		return nil, fmt.Errorf("redis init failed: %w", err)
	}

	var err error
	c.Storage, err = storage.NewMinIOStorage(cfg.MinIO)
	if err != nil {
		c.DB.Close()
		return nil, fmt.Errorf("storage init failed: %w", err)
	}

	c.ImageProcessor = storage.NewImageProcessor()
	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	// 2. Repositories
	c.BookRepository = bookrepo.NewPostgresBookRepository(c.DB.Pool)
	c.UserRepository = userrepo.NewPostgresUserRepository(c.DB.Pool)

	// 3. Services
	c.BookService = bookservice.NewBookService(c.BookRepository, c.Cache, c.Storage, c.ImageProcessor)
	c.RatingService = bookservice.NewRatingService(c.BookRepository, c.Cache, c.Storage)
	c.UserService = userservice.NewUserService(c.UserRepository, c.JWTManager)

	// 4. Handlers
	c.BookHandler = bookhandler.NewBookHandler(c.BookService, c.RatingService)
	c.UserHandler = userhandler.NewUserHandler(c.UserService)

	log.Info().Msg("container initialized")
	return c, nil
}

// Cleanup releases infrastructure resources, in reverse init order
func (c *Container) Cleanup() {
	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.Error().Err(err).Msg("redis close failed")
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	log.Info().Msg("container cleaned up")
}
