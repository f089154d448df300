package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/inkpress/apiserver/config"
	"github.com/inkpress/apiserver/internal/db"
	"github.com/inkpress/apiserver/internal/handlers"
	"github.com/inkpress/apiserver/internal/mail"
	"github.com/inkpress/apiserver/internal/mq"
	"github.com/inkpress/apiserver/internal/services"
	"github.com/inkpress/apiserver/internal/storage"
	"github.com/inkpress/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
}

// New constructs a Server with basic middleware and defaults.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	postRepo := store.NewPostRepository(dbConn)
	categoryRepo := store.NewCategoryRepository(dbConn)
	tagRepo := store.NewTagRepository(dbConn)

	userService := services.NewUserService(userRepo)
	postService := services.NewPostService(postRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	tagService := services.NewTagService(tagRepo)

	if strings.TrimSpace(cfg.JWT.AccessSecret) == "" || strings.TrimSpace(cfg.JWT.RefreshSecret) == "" {
		_ = dbConn.Close()
		return nil, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET are required")
	}
	tokenService := services.NewTokenService(userRepo, cfg.JWT)

	media, err := newMediaStorage(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := media.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ensure media bucket: %w", err)
	}

	mailer, err := newMailer(ctx, cfg)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	authMiddleware := handlers.NewAuthMiddleware(userService, tokenService)

	ownership := handlers.NewOwnershipRegistry()
	ownership.Register(handlers.ResourceUser, func(ctx context.Context, id int) (int, error) {
		user, err := userRepo.GetByID(ctx, id)
		if err != nil {
			return 0, err
		}
		return user.ID, nil
	})
	ownership.Register(handlers.ResourcePost, func(ctx context.Context, id int) (int, error) {
		post, err := postRepo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return post.UserID, nil
	})
	ownership.Register(handlers.ResourceCategory, func(ctx context.Context, id int) (int, error) {
		category, err := categoryRepo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return category.UserID, nil
	})
	ownership.Register(handlers.ResourceTag, func(ctx context.Context, id int) (int, error) {
		tag, err := tagRepo.Get(ctx, id)
		if err != nil {
			return 0, err
		}
		return tag.UserID, nil
	})

	userHandler := handlers.NewUserHandler(userService, tokenService, mailer, media, cfg.Tokens)
	postHandler := handlers.NewPostHandler(postService, media)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	tagHandler := handlers.NewTagHandler(tagService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/api/users", func(r chi.Router) {
		handlers.UserRouter(r, userHandler, authMiddleware)
	})
	router.Route("/api/posts", func(r chi.Router) {
		handlers.PostRouter(r, postHandler, authMiddleware, ownership)
	})
	router.Route("/api/category", func(r chi.Router) {
		handlers.CategoryRouter(r, categoryHandler, authMiddleware, ownership)
	})
	router.Route("/api/tags", func(r chi.Router) {
		handlers.TagRouter(r, tagHandler, authMiddleware, ownership)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
	}, nil
}

// newMediaStorage builds the object storage backend named by
// STORAGE_PROVIDER.
func newMediaStorage(ctx context.Context, cfg config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Provider {
	case "minio":
		backend, err := storage.NewMinioClient(cfg.Minio)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	case "gcs":
		backend, err := storage.NewGCSClient(ctx, cfg.GCS)
		if err != nil {
			return nil, err
		}
		return storage.NewStorage(backend), nil
	default:
		return nil, fmt.Errorf("unsupported storage provider: %s", cfg.Storage.Provider)
	}
}

// newMailer builds the mail dispatcher named by MAIL_PROVIDER. The
// smtp provider sends synchronously; the queue provider publishes jobs
// for the mail worker to deliver.
func newMailer(ctx context.Context, cfg config.Config) (mail.Mailer, error) {
	switch cfg.Mail.Provider {
	case "smtp":
		return mail.NewSMTPMailer(cfg.SMTP), nil
	case "queue":
		backend, err := mail.NewQueueBackend(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return mail.NewQueueMailer(mq.New(backend), cfg.Mail.Channel), nil
	default:
		return nil, fmt.Errorf("unsupported mail provider: %s", cfg.Mail.Provider)
	}
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}
