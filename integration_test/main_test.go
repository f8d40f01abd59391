//go:build integration

package integration_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	pgtc "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/auth"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/cache"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/config"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/router"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/storage"
	"gitlab.com/timkado/api/lead-onboarding-gateway/internal/usecase"
	"gitlab.com/timkado/api/lead-onboarding-gateway/pkg/logger"
)

const (
	adminUsername = "admin"
	adminPassword = "integration-secret"
)

var tableNames = []string{"onboardings", "contact_forms", "conversions"}

// BaseIntegrationSuite starts PostgreSQL and opens the repository against it.
type BaseIntegrationSuite struct {
	suite.Suite
	Postgres    testcontainers.Container
	PostgresDSN string
	Repo        *storage.PostgresRepo
	Ctx         context.Context
	cancel      context.CancelFunc
}

// SetupSuite runs once before the tests in the suite.
func (s *BaseIntegrationSuite) SetupSuite() {
	s.Ctx, s.cancel = context.WithCancel(context.Background())
	log.Println("Setting up BaseIntegrationSuite...")
	logger.Log = zaptest.NewLogger(s.T()).Named("BaseIntegrationSuite")
	startTime := time.Now()

	var err error
	s.Postgres, s.PostgresDSN, err = startPostgres(s.Ctx)
	if err != nil {
		s.T().Fatalf("Failed to start postgres: %v", err)
	}
	log.Println("PostgreSQL container started.")

	s.Repo, err = storage.NewPostgresRepo(s.PostgresDSN, true)
	if err != nil {
		s.T().Fatalf("Failed to open repository: %v", err)
	}

	log.Printf("BaseIntegrationSuite setup complete in %v", time.Since(startTime))
}

// TearDownSuite runs once after all tests have finished.
func (s *BaseIntegrationSuite) TearDownSuite() {
	log.Println("Tearing down BaseIntegrationSuite...")
	if s.Repo != nil {
		if err := s.Repo.Close(s.Ctx); err != nil {
			s.T().Logf("Error closing repository: %v", err)
		}
	}
	if s.Postgres != nil {
		if err := s.Postgres.Terminate(s.Ctx); err != nil {
			s.T().Logf("Error terminating PostgreSQL container: %v", err)
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
}

// SetupTest truncates every table so each test starts empty.
func (s *BaseIntegrationSuite) SetupTest() {
	s.Require().NoError(truncatePostgresTables(s.Ctx, s.PostgresDSN), "Failed to truncate PostgreSQL tables")
}

// ProxyIntegrationSuite serves the proxy endpoint on top of the real repository.
type ProxyIntegrationSuite struct {
	BaseIntegrationSuite
	Server *httptest.Server
	Worker *usecase.ConversionWorker
	Leads  *usecase.LeadService
	Cfg    *config.Config
}

func (s *ProxyIntegrationSuite) SetupSuite() {
	s.BaseIntegrationSuite.SetupSuite()
	gin.SetMode(gin.TestMode)

	hash, err := auth.HashPassword(adminPassword, bcrypt.MinCost)
	s.Require().NoError(err)

	s.Cfg = &config.Config{}
	s.Cfg.Server.Path = "/proxy"
	s.Cfg.Server.MaxBodyBytes = 1 << 20
	s.Cfg.CORS.AllowedOrigins = []string{"*"}
	s.Cfg.Admin = config.AdminConfig{Enabled: true, Username: adminUsername, PasswordHash: hash, TokenTTL: time.Hour}
	s.Cfg.DNS.RequiredARecord = "203.0.113.10"
	s.Cfg.WorkerPools.Conversion = config.WorkerPoolConfig{PoolSize: 2, QueueSize: 10, ExpiryTime: time.Minute, TaskTimeout: 5 * time.Second}

	s.Worker, err = usecase.NewConversionWorker(s.Cfg.WorkerPools.Conversion, storage.NewConversionRepoAdapter(s.Repo), logger.Log)
	s.Require().NoError(err)

	s.Leads = usecase.NewLeadService(
		storage.NewOnboardingRepoAdapter(s.Repo),
		storage.NewContactFormRepoAdapter(s.Repo),
		storage.NewConversionRepoAdapter(s.Repo),
		cache.NewSubmissionCache(1000, 0.01),
		s.Worker,
	)

	authenticator := auth.NewAuthenticator(s.Cfg.Admin)
	r := router.NewRouter()
	(&router.Handlers{Leads: s.Leads, Auth: authenticator}).RegisterAll(r)

	srv, err := router.NewServer(s.Cfg, r, authenticator, nil)
	s.Require().NoError(err)
	s.Server = httptest.NewServer(srv.Handler())
}

func (s *ProxyIntegrationSuite) TearDownSuite() {
	if s.Server != nil {
		s.Server.Close()
	}
	if s.Worker != nil {
		s.Worker.Stop()
	}
	s.BaseIntegrationSuite.TearDownSuite()
}

// ProxyURL is the full proxy endpoint of the running server.
func (s *ProxyIntegrationSuite) ProxyURL() string {
	return s.Server.URL + s.Cfg.Server.Path
}

func TestRunStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageIntegrationSuite))
}

func TestRunProxySuite(t *testing.T) {
	suite.Run(t, new(ProxyIntegrationSuite))
}

// --- Helper Functions ---

func startPostgres(ctx context.Context) (testcontainers.Container, string, error) {
	pgContainer, err := pgtc.Run(ctx,
		"postgres:17-bookworm",
		pgtc.WithDatabase("lead_gateway"),
		pgtc.WithUsername("postgres"),
		pgtc.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, "", fmt.Errorf("failed to start PostgreSQL container: %w", err)
	}

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return pgContainer, "", fmt.Errorf("failed to build PostgreSQL DSN: %w", err)
	}
	return pgContainer, dsn, nil
}

func connectDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connectDB: failed to open connection: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connectDB: failed to ping database: %w", err)
	}
	return db, nil
}

func truncatePostgresTables(ctx context.Context, dsn string) error {
	db, err := connectDB(ctx, dsn)
	if err != nil {
		return err
	}
	defer db.Close()

	for _, table := range tableNames {
		execCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		_, err := db.ExecContext(execCtx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", pq.QuoteIdentifier(table)))
		cancel()
		if err != nil {
			return fmt.Errorf("failed to truncate table %s: %w", table, err)
		}
	}
	return nil
}

// CountRows returns the number of rows matching query, which must select count(*).
func (s *BaseIntegrationSuite) CountRows(query string, args ...interface{}) int {
	db, err := connectDB(s.Ctx, s.PostgresDSN)
	s.Require().NoError(err)
	defer db.Close()

	var n int
	err = db.QueryRowContext(s.Ctx, query, args...).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0
	}
	s.Require().NoError(err, "query: %s", query)
	return n
}
