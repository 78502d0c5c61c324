package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/SAP-F-2025/assessment-engine/internal/cache"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories"
	"github.com/SAP-F-2025/assessment-engine/internal/repositories/casdoor"
)

// MongoRepository implements the main Repository interface on MongoDB.
// Transactions require a replica set.
type MongoRepository struct {
	client       *mongo.Client
	db           *mongo.Database
	redisClient  *redis.Client
	cacheManager *cache.CacheManager

	assessment repositories.AssessmentRepository
	module     repositories.ModuleRepository
	question   repositories.QuestionRepository
	assignment repositories.AssignmentRepository
	report     repositories.ReportRepository
	user       repositories.UserRepository
}

// RepositoryConfig holds configuration for repository initialization
type RepositoryConfig struct {
	Client        *mongo.Client
	Database      *mongo.Database
	RedisClient   *redis.Client
	CasdoorConfig casdoor.CasdoorConfig

	// UserRepository overrides the Casdoor directory when set.
	UserRepository repositories.UserRepository
}

func NewMongoRepository(config RepositoryConfig) repositories.Repository {
	cacheManager := cache.NewCacheManager(config.RedisClient)

	user := config.UserRepository
	if user == nil {
		user = casdoor.NewUserCasdoor(config.CasdoorConfig, cacheManager.User)
	}

	repo := &MongoRepository{
		client:       config.Client,
		db:           config.Database,
		redisClient:  config.RedisClient,
		cacheManager: cacheManager,
		user:         user,
	}
	repo.bind(scope{})
	return repo
}

func (r *MongoRepository) bind(s scope) {
	r.module = NewModuleMongo(r.db, s)
	r.assessment = NewAssessmentMongo(r.db, r.module, s)
	r.question = cache.NewCachedQuestionRepository(NewQuestionMongo(r.db, s), r.cacheManager.Question)
	r.assignment = NewAssignmentMongo(r.db, s)
	r.report = NewReportMongo(r.db, s)
}

func (r *MongoRepository) Assessment() repositories.AssessmentRepository {
	return r.assessment
}

func (r *MongoRepository) Module() repositories.ModuleRepository {
	return r.module
}

func (r *MongoRepository) Question() repositories.QuestionRepository {
	return r.question
}

func (r *MongoRepository) Assignment() repositories.AssignmentRepository {
	return r.assignment
}

func (r *MongoRepository) Report() repositories.ReportRepository {
	return r.report
}

func (r *MongoRepository) User() repositories.UserRepository {
	return r.user
}

// WithTransaction runs fn inside a multi-document transaction. The driver
// may retry fn on transient errors.
func (r *MongoRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		txRepo := &MongoRepository{
			client:       r.client,
			db:           r.db,
			redisClient:  r.redisClient,
			cacheManager: r.cacheManager,
			user:         r.user,
		}
		txRepo.bind(scope{session: session})
		return nil, fn(txRepo)
	})
	return err
}

func (r *MongoRepository) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if r.redisClient != nil {
		if err := r.cacheManager.HealthCheck(ctx); err != nil {
			return fmt.Errorf("cache ping failed: %w", err)
		}
	}
	return nil
}

func (r *MongoRepository) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := r.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect mongodb: %w", err)
	}

	if r.redisClient != nil {
		if err := r.redisClient.Close(); err != nil {
			return fmt.Errorf("failed to close Redis: %w", err)
		}
	}
	return nil
}

// RepositoryManager implements the RepositoryManager interface
type RepositoryManager struct {
	config RepositoryConfig
	repo   repositories.Repository
}

func NewRepositoryManager(config RepositoryConfig) repositories.RepositoryManager {
	return &RepositoryManager{config: config}
}

// Initialize verifies connectivity, creates indexes and builds the repository
func (rm *RepositoryManager) Initialize() error {
	if rm.config.Client == nil || rm.config.Database == nil {
		return fmt.Errorf("mongodb client and database are required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := rm.config.Client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("mongodb connection failed: %w", err)
	}

	if err := EnsureIndexes(ctx, rm.config.Database); err != nil {
		return err
	}

	rm.repo = NewMongoRepository(rm.config)
	return nil
}

func (rm *RepositoryManager) GetRepository() repositories.Repository {
	return rm.repo
}

func (rm *RepositoryManager) HealthCheck(ctx context.Context) error {
	if rm.repo == nil {
		return fmt.Errorf("repository not initialized")
	}
	return rm.repo.Ping(ctx)
}

func (rm *RepositoryManager) Shutdown(ctx context.Context) error {
	if rm.repo == nil {
		return nil
	}
	return rm.repo.Close()
}
