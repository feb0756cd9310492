package app

import (
	"context"
	"fmt"

	"github.com/farmily/fhs/auth"
	"github.com/farmily/fhs/config"
	"github.com/farmily/fhs/handlers"
	"github.com/farmily/fhs/internal/observability"
	"github.com/farmily/fhs/middleware"
	"github.com/farmily/fhs/policy"
	"github.com/farmily/fhs/repositories"
	"github.com/farmily/fhs/repositories/postgres"
	"github.com/farmily/fhs/services"
	"github.com/farmily/fhs/token"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config  *config.Config
	DB      *postgres.DB
	Logger  *zap.Logger
	Metrics *observability.Metrics

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Users     repositories.UserRepository
	TxManager repositories.TransactionManager

	// Security
	Tokens        *token.Codec
	Passwords     *auth.BcryptVerifier
	Resolver      *auth.Resolver
	Authenticator *auth.Authenticator
	Policy        *policy.Table

	// Services
	UserService *services.UserService

	// HTTP
	AuthMiddleware *middleware.AuthMiddleware
	Authorizer     *middleware.Authorizer
	HealthHandler  *handlers.HealthHandler
	AuthHandler    *handlers.AuthHandler
	UserHandler    *handlers.UserHandler
}

// NewDependencies opens the database and wires up all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := factory.GetDB().PingContext(ctx); err != nil {
		_ = factory.Close()
		return nil, fmt.Errorf("failed to initialize database: database ping failed: %w", err)
	}

	deps, err := Wire(cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// Wire builds everything above the database from an open repository factory.
func Wire(cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if cfg.Observability.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}

	deps.initRepositories()

	if err := deps.initSecurity(cfg); err != nil {
		return nil, fmt.Errorf("failed to initialize security: %w", err)
	}

	deps.initHTTP()
	return deps, nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Users = repos.Users
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initSecurity builds the token codec, password hashing and the route policy
func (d *Dependencies) initSecurity(cfg *config.Config) error {
	codec, err := token.NewCodec(cfg.Auth.SigningKey(), token.WithTTL(cfg.Auth.TokenTTL))
	if err != nil {
		return fmt.Errorf("failed to create token codec: %w", err)
	}
	d.Tokens = codec

	table, err := policy.Load(cfg.Auth.PolicyFile)
	if err != nil {
		return fmt.Errorf("failed to load route policy: %w", err)
	}
	d.Policy = table

	d.Passwords = auth.NewBcryptVerifier(cfg.Auth.BcryptCost)
	d.Resolver = auth.NewResolver(d.Users, d.Logger)
	d.Authenticator = auth.NewAuthenticator(d.Users, d.Passwords, d.Logger)

	source := "built-in"
	if cfg.Auth.PolicyFile != "" {
		source = cfg.Auth.PolicyFile
	}
	d.Logger.Info("security initialized",
		zap.Duration("token_ttl", codec.TTL()),
		zap.Int("bcrypt_cost", d.Passwords.Cost()),
		zap.String("policy_source", source),
		zap.Int("policy_rules", len(table.Rules())))
	return nil
}

// initHTTP builds the service layer, middleware and handlers
func (d *Dependencies) initHTTP() {
	d.UserService = services.NewUserService(
		d.Users,
		d.TxManager,
		d.Authenticator,
		d.Passwords,
		d.Tokens,
		d.Metrics,
		d.Logger,
	)

	d.AuthMiddleware = middleware.NewAuthMiddleware(d.Tokens, d.Resolver, d.Logger,
		middleware.WithLookupTimeout(d.Config.Auth.LookupTimeout),
		middleware.WithAuthMetrics(d.Metrics),
	)
	d.Authorizer = middleware.NewAuthorizer(d.Policy, d.Metrics, d.Logger)

	d.HealthHandler = handlers.NewHealthHandler(d.DB, d.Logger)
	d.AuthHandler = handlers.NewAuthHandler(d.UserService, d.Logger)
	d.UserHandler = handlers.NewUserHandler(d.UserService, d.Logger)
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
		d.RepoFactory = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %v", errs)
	}

	return nil
}
