//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sidedish/sidedish/internal/activity"
	"github.com/sidedish/sidedish/internal/api"
	"github.com/sidedish/sidedish/internal/auth"
	"github.com/sidedish/sidedish/internal/cache"
	"github.com/sidedish/sidedish/internal/drafts"
	"github.com/sidedish/sidedish/internal/generation"
	"github.com/sidedish/sidedish/internal/projects"
	"github.com/sidedish/sidedish/internal/uploads"
	"github.com/sidedish/sidedish/internal/users"
	"github.com/sidedish/sidedish/internal/whispers"
)

// testCooldown keeps generation tests fast; production uses 5s.
const testCooldown = 500 * time.Millisecond

type TestEnv struct {
	Pool        *pgxpool.Pool
	RedisClient *redis.Client
	Server      *httptest.Server
	AuthSvc     *auth.Service
	UserSvc     *users.Service
	DraftStore  *drafts.Store
}

var testEnv *TestEnv

func SetupTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	if testEnv != nil {
		return testEnv
	}

	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "postgres:16-alpine",
			ExposedPorts: []string{"5432/tcp"},
			Env: map[string]string{
				"POSTGRES_USER":     "test",
				"POSTGRES_PASSWORD": "test",
				"POSTGRES_DB":       "sidedish_test",
			},
			WaitingFor: wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting postgres container: %v", err)
	}
	t.Cleanup(func() { pgContainer.Terminate(ctx) })

	pgHost, _ := pgContainer.Host(ctx)
	pgPort, _ := pgContainer.MappedPort(ctx, "5432")

	// Start Redis container
	redisContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("starting redis container: %v", err)
	}
	t.Cleanup(func() { redisContainer.Terminate(ctx) })

	redisHost, _ := redisContainer.Host(ctx)
	redisPort, _ := redisContainer.MappedPort(ctx, "6379")

	// Connect to PostgreSQL
	dsn := fmt.Sprintf("postgres://test:test@%s:%s/sidedish_test?sslmode=disable", pgHost, pgPort.Port())
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting to postgres: %v", err)
	}
	t.Cleanup(func() { pool.Close() })

	// Run migrations
	migrationsPath := getMigrationsPath()
	m, err := migrate.New(
		fmt.Sprintf("file://%s", migrationsPath),
		dsn,
	)
	if err != nil {
		t.Fatalf("creating migrator: %v", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		t.Fatalf("running migrations: %v", err)
	}

	// Connect to Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf("%s:%s", redisHost, redisPort.Port()),
	})
	t.Cleanup(func() { redisClient.Close() })

	// Stub copywriting provider
	providerServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generation.GeneratedContent{
			ShortDescription: "A punchy pitch",
			Description:      "A longer generated description of the project.",
			Tags:             []string{"go", "showcase"},
		})
	}))
	t.Cleanup(providerServer.Close)

	// Setup services (no NATS: the API runs degraded without events)
	readCache := cache.New()

	userRepo := users.NewRepository(pool)
	userSvc := users.NewService(userRepo, readCache)
	userHandler := users.NewHandler(userSvc)

	jwtManager := auth.NewJWTManager("test-access-secret-32-chars-long!!", "test-refresh-secret-32-chars-long!!", 15*time.Minute, 7*24*time.Hour)
	authSvc := auth.NewService(jwtManager, redisClient, userSvc.HandleFor)
	authHandler := auth.NewHandler(authSvc, userSvc, nil)

	draftStore := drafts.NewStore(redisClient, 5)
	draftHandler := drafts.NewHandler(draftStore)

	usageStore := generation.NewUsageStore(generation.NewRedisKV(redisClient))
	limiter := generation.NewLimiter(usageStore, generation.Limits{
		MaxPerDraft: 3,
		MaxPerDay:   10,
		Cooldown:    testCooldown,
	})
	provider := generation.NewHTTPProvider(providerServer.URL, "test-key", 5*time.Second)
	generationSvc := generation.NewService(limiter, provider, draftStore, readCache, nil)
	generationHandler := generation.NewHandler(generationSvc)

	projectRepo := projects.NewRepository(pool)
	projectSvc := projects.NewService(projectRepo, readCache, nil)
	projectHandler := projects.NewHandler(projectSvc, draftStore)

	whisperRepo := whispers.NewRepository(pool)
	whisperSvc := whispers.NewService(whisperRepo, userSvc, nil)
	whisperHandler := whispers.NewHandler(whisperSvc)

	uploadHandler := uploads.NewHandler(nil, "")

	activityRepo := activity.NewRepository(pool)
	activityHandler := activity.NewHandler(activityRepo)

	router := api.NewRouter(pool, nil, api.RouterConfig{}, api.HandlerSet{
		Register: authHandler.Register,
		Login:    authHandler.Login,
		Refresh:  authHandler.Refresh,
		Logout:   authHandler.Logout,

		GetMe:      userHandler.Me,
		UpdateMe:   userHandler.UpdateMe,
		GetProfile: userHandler.GetByHandle,

		ListProjects:  projectHandler.List,
		GetProject:    projectHandler.Get,
		UpdateProject: projectHandler.Update,
		DeleteProject: projectHandler.Delete,
		LikeProject:   projectHandler.Like,
		UnlikeProject: projectHandler.Unlike,
		ListComments:  projectHandler.ListComments,
		CreateComment: projectHandler.CreateComment,
		DeleteComment: projectHandler.DeleteComment,

		SendWhisper:     whisperHandler.Send,
		ListInbox:       whisperHandler.Inbox,
		ListOutbox:      whisperHandler.Outbox,
		MarkWhisperRead: whisperHandler.MarkRead,

		SaveDraft:       draftHandler.Save,
		ListDrafts:      draftHandler.List,
		GetDraft:        draftHandler.Get,
		DeleteDraft:     draftHandler.Delete,
		PublishDraft:    projectHandler.PublishDraft,
		SelectCandidate: draftHandler.SelectCandidate,
		Generate:        generationHandler.Generate,
		GetUsage:        generationHandler.GetUsage,

		UploadImage: uploadHandler.UploadImage,

		ListActivity: activityHandler.List,

		AuthMiddleware: auth.Middleware(authSvc),
	})

	server := httptest.NewServer(router)
	t.Cleanup(func() { server.Close() })

	testEnv = &TestEnv{
		Pool:        pool,
		RedisClient: redisClient,
		Server:      server,
		AuthSvc:     authSvc,
		UserSvc:     userSvc,
		DraftStore:  draftStore,
	}

	return testEnv
}

func getMigrationsPath() string {
	// Try relative paths from test directory
	paths := []string{
		"../../migrations",
		"../../../migrations",
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	log.Fatal("migrations directory not found")
	return ""
}

// Helper functions

func RegisterUser(t *testing.T, env *TestEnv, email, handle, password string) map[string]any {
	t.Helper()
	body := map[string]string{"email": email, "handle": handle, "password": password}
	resp := DoRequest(t, env, "POST", "/api/v1/auth/register", body, "")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: status %d", resp.StatusCode)
	}
	return ParseResponse(t, resp)
}

func LoginUser(t *testing.T, env *TestEnv, email, password string) string {
	t.Helper()
	body := map[string]string{"email": email, "password": password}
	resp := DoRequest(t, env, "POST", "/api/v1/auth/login", body, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed: status %d", resp.StatusCode)
	}
	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	tokens := data["tokens"].(map[string]any)
	return tokens["access_token"].(string)
}

func SaveDraft(t *testing.T, env *TestEnv, token, title string) string {
	t.Helper()
	body := map[string]any{
		"title":       title,
		"summary":     "A summary of " + title,
		"description": "A longer description of " + title,
		"tags":        []string{"go"},
	}
	resp := DoRequest(t, env, "POST", "/api/v1/drafts", body, token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("saving draft failed: status %d", resp.StatusCode)
	}
	result := ParseResponse(t, resp)
	data := result["data"].(map[string]any)
	return data["id"].(string)
}

func DoRequest(t *testing.T, env *TestEnv, method, path string, body any, token string) *http.Response {
	t.Helper()
	var bodyReader io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, env.Server.URL+path, bodyReader)
	if err != nil {
		t.Fatalf("creating request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("doing request: %v", err)
	}
	return resp
}

func ParseResponse(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var result map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("parsing response: %v", err)
	}
	return result
}
