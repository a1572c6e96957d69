// file: internal/services/service_collection.go
package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"scholarhub/internal/cache"
	"scholarhub/internal/config"
	"scholarhub/internal/database"
	"scholarhub/internal/events"
	"scholarhub/internal/repositories"
	"scholarhub/internal/sequence"
	"scholarhub/internal/storage"

	"go.uber.org/zap"
)

// ServiceCollection wires every service with its infrastructure
type ServiceCollection struct {
	// Core Services
	AuthService        AuthService        `json:"-"`
	UserService        UserService        `json:"-"`
	ApplicantService   ApplicantService   `json:"-"`
	ApplicationService ApplicationService `json:"-"`
	ListingService     ListingService     `json:"-"`
	DocumentService    DocumentService    `json:"-"`
	AdService          AdService          `json:"-"`

	// Repository Collection
	Repositories *repositories.Collection `json:"-"`

	// Infrastructure Components
	Cache     cache.Cache        `json:"-"`
	EventBus  events.EventBus    `json:"-"`
	Store     storage.Store      `json:"-"`
	Validator *storage.Validator `json:"-"`
	Sequence  sequence.Generator `json:"-"`
	Logger    *zap.Logger        `json:"-"`
	Config    *config.Config     `json:"-"`
	DBManager *database.Manager  `json:"-"`

	startTime   time.Time
	mu          sync.RWMutex
	started     bool
	initialized bool
}

// ServiceHealth represents the health status of the service collection
type ServiceHealth struct {
	Status       string                   `json:"status"`
	Timestamp    time.Time                `json:"timestamp"`
	Dependencies map[string]ServiceStatus `json:"dependencies"`
	Uptime       time.Duration            `json:"uptime"`
	Issues       []string                 `json:"issues,omitempty"`
}

// ServiceStatus represents the status of one dependency
type ServiceStatus struct {
	Name         string                 `json:"name"`
	Status       string                 `json:"status"` // healthy, unhealthy
	LastCheck    time.Time              `json:"last_check"`
	ResponseTime time.Duration          `json:"response_time"`
	Error        string                 `json:"error,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// NewServiceCollection creates the service collection
func NewServiceCollection(
	ctx context.Context,
	dbManager *database.Manager,
	cfg *config.Config,
	logger *zap.Logger,
) (*ServiceCollection, error) {
	if dbManager == nil {
		return nil, fmt.Errorf("database connection is required")
	}
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	collection := &ServiceCollection{
		DBManager: dbManager,
		Config:    cfg,
		Logger:    logger,
		startTime: time.Now(),
	}

	// Initialize in dependency order
	if err := collection.initializeInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize infrastructure: %w", err)
	}

	var err error
	collection.Repositories, err = repositories.NewCollection(dbManager, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository collection: %w", err)
	}

	collection.initializeServices()
	collection.initialized = true
	logger.Info("Service collection initialized successfully",
		zap.String("storage", cfg.Storage.Provider),
		zap.String("cache", cfg.Cache.Provider),
		zap.String("sequence", cfg.Sequence.Backend))

	return collection, nil
}

// ===============================
// INITIALIZATION METHODS
// ===============================

// initializeInfrastructure sets up cache, event bus, storage and the
// identifier generator
func (sc *ServiceCollection) initializeInfrastructure(ctx context.Context) error {
	sc.Logger.Info("Initializing infrastructure components")

	c, err := cache.NewCache(cacheConfig(sc.Config.Cache), sc.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}
	sc.Cache = c

	sc.EventBus = events.NewInMemoryEventBus(&events.EventBusConfig{
		BufferSize:     sc.Config.Realtime.EventQueueSize,
		WorkerCount:    sc.Config.Realtime.EventWorkers,
		HandlerTimeout: 10 * time.Second,
	}, sc.Logger)

	store, err := storage.New(ctx, &sc.Config.Storage, sc.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	sc.Store = store
	sc.Validator = storage.NewValidator(sc.Config.Uploads)

	switch sc.Config.Sequence.Backend {
	case "redis":
		sc.Sequence = sequence.NewCacheGenerator(sc.Cache, sc.Config.Sequence.KeyPrefix, sc.Logger)
	default:
		sc.Sequence = sequence.NewPostgresGenerator(sc.DBManager, sc.Logger)
	}

	sc.Logger.Info("Infrastructure components initialized")
	return nil
}

// initializeServices sets up the service layer
func (sc *ServiceCollection) initializeServices() {
	repos := sc.Repositories

	sc.AuthService = NewAuthService(
		repos.User,
		repos.Staff,
		repos.Applicant,
		repos,
		sc.Sequence,
		sc.Cache,
		sc.EventBus,
		sc.Config.Auth,
		sc.Logger,
	)
	sc.UserService = NewUserService(repos.User, repos.Staff, repos, sc.Sequence, sc.AuthService, sc.EventBus, sc.Logger)
	sc.ApplicantService = NewApplicantService(repos.Applicant, sc.Sequence, sc.Logger)
	sc.ApplicationService = NewApplicationService(
		repos.Application,
		repos.Applicant,
		repos.Listing,
		repos,
		sc.Sequence,
		sc.EventBus,
		sc.Logger,
	)
	sc.ListingService = NewListingService(repos.Listing, sc.Sequence, sc.Logger)
	sc.DocumentService = NewDocumentService(
		repos.Document,
		repos.Applicant,
		repos.Application,
		sc.Store,
		sc.Validator,
		sc.Sequence,
		sc.EventBus,
		sc.Logger,
	)
	sc.AdService = NewAdService(repos.Ad, sc.Sequence, sc.Logger)
}

func cacheConfig(c config.CacheConfig) *cache.Config {
	cfg := cache.DefaultConfig()
	if c.Provider != "" {
		cfg.Provider = c.Provider
	}
	if c.DefaultTTL > 0 {
		cfg.TTL = c.DefaultTTL
	}
	if c.MaxKeys > 0 {
		cfg.MaxKeys = c.MaxKeys
	}
	if c.CleanupInterval > 0 {
		cfg.CleanupInterval = c.CleanupInterval
	}
	if c.PoolSize > 0 {
		cfg.PoolSize = c.PoolSize
	}
	cfg.RedisURL = c.RedisURL
	cfg.RedisDB = c.RedisDB
	cfg.RedisPassword = c.RedisPassword
	return cfg
}

// ===============================
// HEALTH AND MONITORING
// ===============================

// HealthCheck probes the database, cache, event bus and object store
func (sc *ServiceCollection) HealthCheck(ctx context.Context) (*ServiceHealth, error) {
	health := &ServiceHealth{
		Status:       "healthy",
		Timestamp:    time.Now(),
		Dependencies: make(map[string]ServiceStatus),
		Uptime:       time.Since(sc.startTime),
	}

	dbStatus := sc.checkDatabaseHealth(ctx)
	health.Dependencies["database"] = dbStatus

	probes := map[string]func(context.Context) error{
		"cache":   sc.Cache.Health,
		"storage": sc.Store.Health,
		"events":  func(context.Context) error { return sc.EventBus.Health() },
	}
	for name, probe := range probes {
		health.Dependencies[name] = checkDependency(ctx, name, probe)
	}

	for name, dep := range health.Dependencies {
		if dep.Status != "healthy" {
			health.Status = "unhealthy"
			health.Issues = append(health.Issues, fmt.Sprintf("%s: %s", name, dep.Error))
		}
	}
	return health, nil
}

func (sc *ServiceCollection) checkDatabaseHealth(ctx context.Context) ServiceStatus {
	start := time.Now()
	status := ServiceStatus{Name: "database", Status: "healthy", LastCheck: start}

	dbHealth := sc.DBManager.Health(ctx)
	status.ResponseTime = time.Since(start)
	if dbHealth.Status == database.StatusUnhealthy {
		status.Status = "unhealthy"
		if len(dbHealth.Errors) > 0 {
			status.Error = dbHealth.Errors[0]
		}
	}
	snapshot := sc.DBManager.Snapshot()
	status.Metadata = map[string]interface{}{
		"query_count":      snapshot.QueryCount,
		"slow_query_count": snapshot.SlowQueryCount,
		"open_connections": snapshot.DBStats.OpenConnections,
	}
	return status
}

func checkDependency(ctx context.Context, name string, probe func(context.Context) error) ServiceStatus {
	start := time.Now()
	status := ServiceStatus{Name: name, Status: "healthy", LastCheck: start}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := probe(ctx); err != nil {
		status.Status = "unhealthy"
		status.Error = err.Error()
	}
	status.ResponseTime = time.Since(start)
	return status
}

// ===============================
// SERVICE LIFECYCLE MANAGEMENT
// ===============================

// Start starts the event bus workers
func (sc *ServiceCollection) Start(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.started {
		return nil
	}
	if err := sc.EventBus.Start(ctx); err != nil {
		return fmt.Errorf("failed to start event bus: %w", err)
	}
	sc.started = true
	sc.Logger.Info("Service collection started")
	return nil
}

// Shutdown drains the event bus and closes the cache
func (sc *ServiceCollection) Shutdown(ctx context.Context) error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	var firstErr error
	if sc.started {
		if err := sc.EventBus.Stop(ctx); err != nil {
			sc.Logger.Error("Failed to stop event bus", zap.Error(err))
			firstErr = err
		}
		sc.started = false
	}
	if err := sc.Cache.Close(); err != nil {
		sc.Logger.Error("Failed to close cache", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	sc.Logger.Info("Service collection shut down")
	return firstErr
}

// IsInitialized returns whether the service collection is fully initialized
func (sc *ServiceCollection) IsInitialized() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.initialized
}

// GetLogger returns the logger instance
func (sc *ServiceCollection) GetLogger() *zap.Logger {
	return sc.Logger
}

// GetConfig returns the configuration instance
func (sc *ServiceCollection) GetConfig() *config.Config {
	return sc.Config
}
