package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/jmoiron/sqlx"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aleex825/budgetwise-backend/internal/database"
	"github.com/aleex825/budgetwise-backend/internal/middlewares"
	"github.com/aleex825/budgetwise-backend/internal/models"
	"github.com/aleex825/budgetwise-backend/internal/services"
)

var configKeys = []string{
	"APP_HOST", "APP_PORT", "APP_LOG_LEVEL", "APP_LOG_FORMAT",
	"DATABASE_URL", "DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW_SECOND",
	"KAFKA_BROKERS", "KAFKA_TOPIC",
}

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv blanks the variables read by parseConfig; blank means default.
func resetEnv(t *testing.T) {
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	assert.Equal(t, "config.env", parseFlags())
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	assert.Equal(t, "myconfig.env", parseFlags())
}

func TestPrintBuildInfo_Output(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	oldVersion, oldCommit, oldDate := buildVersion, buildCommit, buildDate
	defer func() { buildVersion, buildCommit, buildDate = oldVersion, oldCommit, oldDate }()
	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2025-09-26"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout

	assert.Equal(t, "Starting service version v1.0.0, commit abcd1234, build 2025-09-26\n", buf.String())
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv(t)

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, config{
		AppHost:        "localhost",
		AppPort:        "8080",
		LogLevel:       "info",
		LogFormat:      "json",
		DatabaseURL:    "sqlite:///./budgetwise.db",
		MaxOpenConns:   16,
		MaxIdleConns:   8,
		AuthRateLimit:  20,
		AuthRateWindow: time.Minute,
		KafkaTopic:     "budgetwise.transactions",
	}, cfg)
}

func TestParseConfig_CustomEnv(t *testing.T) {
	resetEnv(t)
	t.Setenv("APP_HOST", "0.0.0.0")
	t.Setenv("APP_PORT", "9090")
	t.Setenv("APP_LOG_LEVEL", "debug")
	t.Setenv("APP_LOG_FORMAT", "console")
	t.Setenv("DATABASE_URL", "postgresql://user:pass@db:5432/budgetwise")
	t.Setenv("DB_MAX_OPEN_CONNS", "20")
	t.Setenv("DB_MAX_IDLE_CONNS", "10")
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("REDIS_PASSWORD", "redispass")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("AUTH_RATE_LIMIT", "5")
	t.Setenv("AUTH_RATE_WINDOW_SECOND", "30")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("KAFKA_TOPIC", "events")

	cfg, err := parseConfig("nonexistent.env")
	require.NoError(t, err)

	assert.Equal(t, config{
		AppHost:        "0.0.0.0",
		AppPort:        "9090",
		LogLevel:       "debug",
		LogFormat:      "console",
		DatabaseURL:    "postgresql://user:pass@db:5432/budgetwise",
		MaxOpenConns:   20,
		MaxIdleConns:   10,
		RedisAddr:      "redis:6379",
		RedisPassword:  "redispass",
		RedisDB:        2,
		AuthRateLimit:  5,
		AuthRateWindow: 30 * time.Second,
		KafkaBrokers:   []string{"kafka-1:9092", "kafka-2:9092"},
		KafkaTopic:     "events",
	}, cfg)
}

func TestParseConfig_FromFile(t *testing.T) {
	resetEnv(t)
	path := filepath.Join(t.TempDir(), "config.env")
	require.NoError(t, os.WriteFile(path, []byte("APP_PORT=7070\nDATABASE_URL=sqlite:///data.db\n"), 0o600))

	// godotenv does not override variables that are already set, even blank ones.
	os.Unsetenv("APP_PORT")
	os.Unsetenv("DATABASE_URL")

	cfg, err := parseConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "7070", cfg.AppPort)
	assert.Equal(t, "sqlite:///data.db", cfg.DatabaseURL)
}

func TestParseConfig_InvalidNumbers(t *testing.T) {
	for _, key := range []string{"DB_MAX_OPEN_CONNS", "DB_MAX_IDLE_CONNS", "REDIS_DB", "AUTH_RATE_LIMIT", "AUTH_RATE_WINDOW_SECOND"} {
		t.Run(key, func(t *testing.T) {
			resetEnv(t)
			t.Setenv(key, "not-a-number")

			_, err := parseConfig("nonexistent.env")
			require.Error(t, err)
			assert.Contains(t, err.Error(), key)
		})
	}
}

func freePort(t *testing.T) string {
	t.Helper()
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer lis.Close()
	return fmt.Sprint(lis.Addr().(*net.TCPAddr).Port)
}

func TestRun_SQLite(t *testing.T) {
	port := freePort(t)
	cfg := config{
		AppHost:        "127.0.0.1",
		AppPort:        port,
		LogLevel:       "debug",
		LogFormat:      "console",
		DatabaseURL:    "sqlite:///" + filepath.Join(t.TempDir(), "run.db"),
		AuthRateLimit:  20,
		AuthRateWindow: time.Minute,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, cfg) }()

	healthURL := fmt.Sprintf("http://127.0.0.1:%s/healthz", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(healthURL)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()

	select {
	case <-time.After(11 * time.Second):
		t.Fatal("run did not stop")
	case err := <-errCh:
		assert.NoError(t, err)
	}
}

func TestRun_InvalidDatabaseURL(t *testing.T) {
	err := run(context.Background(), config{
		LogLevel:    "info",
		LogFormat:   "json",
		DatabaseURL: "mysql://localhost/budgetwise",
	})
	assert.Error(t, err)
}

func TestRun_InvalidLogLevel(t *testing.T) {
	err := run(context.Background(), config{LogLevel: "loud", LogFormat: "json"})
	assert.Error(t, err)
}

// apiClient drives a router end to end and decodes JSON replies.
type apiClient struct {
	t   *testing.T
	srv *httptest.Server
}

func newTestAPI(t *testing.T, counter middlewares.Counter, kafkaWriter services.KafkaWriter) (*apiClient, *sqlx.DB) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, "sqlite:///"+filepath.Join(t.TempDir(), "api.db"), 0, 0)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db))
	t.Cleanup(func() { db.Close() })

	cfg := config{AppHost: "localhost", AppPort: "8080", AuthRateLimit: 2, AuthRateWindow: time.Minute}
	srv := httptest.NewServer(newRouter(cfg, db, counter, kafkaWriter))
	t.Cleanup(srv.Close)

	return &apiClient{t: t, srv: srv}, db
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()

	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.srv.Client().Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type userReply struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

func TestAPI_AuthFlow(t *testing.T) {
	api, _ := newTestAPI(t, nil, nil)

	var user userReply
	code := api.do(http.MethodPost, "/auth/signup", map[string]string{"username": " Alice@X.com ", "password": "abcd"}, &user)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice@x.com", user.Username)
	assert.NotEmpty(t, user.ID)

	var errResp map[string]string
	code = api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice@x.com", "password": "other"}, &errResp)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, services.ErrUserAlreadyExists.Error(), errResp["error"])

	code = api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "   ", "password": "abcd"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)

	code = api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "bob", "password": " ab "}, &errResp)
	assert.Equal(t, http.StatusBadRequest, code)

	var logged userReply
	code = api.do(http.MethodPost, "/auth/login", map[string]string{"username": "ALICE@x.com", "password": "abcd"}, &logged)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, user, logged)

	code = api.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice@x.com", "password": "ABCD"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, code)

	code = api.do(http.MethodPost, "/auth/login", map[string]string{"username": "nobody", "password": "abcd"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, code)

	var ok map[string]bool
	code = api.do(http.MethodPost, "/auth/reset-password", map[string]string{"username": "alice@x.com", "password": "newpass"}, &ok)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]bool{"ok": true}, ok)

	code = api.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice@x.com", "password": "abcd"}, &errResp)
	assert.Equal(t, http.StatusUnauthorized, code)
	code = api.do(http.MethodPost, "/auth/login", map[string]string{"username": "alice@x.com", "password": "newpass"}, &logged)
	assert.Equal(t, http.StatusOK, code)

	code = api.do(http.MethodPost, "/auth/reset-password", map[string]string{"username": "nobody", "password": "newpass"}, &errResp)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAPI_TransactionFlow(t *testing.T) {
	api, db := newTestAPI(t, nil, nil)

	var alice, bob userReply
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "abcd"}, &alice))
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "bob", "password": "abcd"}, &bob))

	txPath := "/users/" + alice.ID + "/transactions"
	input := map[string]any{"id": "tx-1", "type": "gasto", "amount": 12.5, "category": "food", "note": "lunch", "date": "01/01/2024"}

	var first models.TransactionDB
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, txPath, input, &first))
	assert.Equal(t, "tx-1", first.TransactionID)
	assert.Equal(t, alice.ID, first.UserID)
	assert.Equal(t, models.TransactionTypeExpense, first.Type)
	assert.Equal(t, first.CreatedAt, first.UpdatedAt)

	var second models.TransactionDB
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, txPath, input, &second))
	assert.Equal(t, first.CreatedAt, second.CreatedAt)
	assert.GreaterOrEqual(t, second.UpdatedAt, first.UpdatedAt)
	second.UpdatedAt = first.UpdatedAt
	assert.Equal(t, first, second)

	input["amount"] = 20.0
	input["type"] = "INGRESO"
	var updated models.TransactionDB
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, txPath, input, &updated))
	assert.Equal(t, 20.0, updated.Amount)
	assert.Equal(t, models.TransactionTypeIncome, updated.Type)

	var list []models.TransactionDB
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, txPath, nil, &list))
	require.Len(t, list, 1)
	assert.Equal(t, updated, list[0])

	// bob cannot claim alice's id and sees none of her rows
	var errResp map[string]string
	assert.Equal(t, http.StatusConflict, api.do(http.MethodPost, "/users/"+bob.ID+"/transactions", input, &errResp))
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, "/users/"+bob.ID+"/transactions", nil, &list))
	assert.Empty(t, list)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/users/"+bob.ID+"/transactions/tx-1", nil, &errResp))

	bad := map[string]any{"id": "tx-2", "type": "GASTO", "amount": 1, "date": "2024-01-01"}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, txPath, bad, &errResp))
	bad = map[string]any{"id": "tx-2", "type": "OTRO", "amount": 1, "date": "01/01/2024"}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, txPath, bad, &errResp))
	bad = map[string]any{"id": "tx-2", "type": "GASTO", "date": "01/01/2024"}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, txPath, bad, &errResp))
	bad = map[string]any{"id": "tx-2", "type": "GASTO", "amount": 1, "category": "  ", "date": "01/01/2024"}
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPost, txPath, bad, &errResp))
	assert.Contains(t, errResp["error"], "category is required")

	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPost, "/users/ghost/transactions", input, &errResp))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/users/ghost/transactions", nil, &errResp))

	var ok map[string]bool
	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, txPath+"/tx-1", nil, &ok))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, txPath+"/tx-1", nil, &errResp))
	assert.Equal(t, services.ErrTransactionNotFound.Error(), errResp["error"])

	// deleting a user takes its transactions along
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, txPath, input, &updated))
	assert.Equal(t, http.StatusOK, api.do(http.MethodDelete, "/users/"+alice.ID, nil, &ok))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, txPath, nil, &errResp))
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodDelete, "/users/"+alice.ID, nil, &errResp))

	var orphans int
	require.NoError(t, db.Get(&orphans, `SELECT COUNT(*) FROM transactions WHERE user_id = ?`, alice.ID))
	assert.Zero(t, orphans)
}

func TestAPI_Health(t *testing.T) {
	api, db := newTestAPI(t, nil, nil)

	var health map[string]string
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, "/healthz", nil, &health))
	assert.Equal(t, "ok", health["status"])

	db.Close()
	assert.Equal(t, http.StatusServiceUnavailable, api.do(http.MethodGet, "/healthz", nil, &health))
	assert.Equal(t, "unavailable", health["status"])
}

func TestAPI_AuthRateLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	counter := middlewares.NewMockCounter(ctrl)
	var calls int64
	counter.EXPECT().
		Increment(gomock.Any(), "ratelimit:auth:127.0.0.1", time.Minute).
		DoAndReturn(func(context.Context, string, time.Duration) (int64, error) {
			calls++
			return calls, nil
		}).
		Times(3)

	api, _ := newTestAPI(t, counter, nil)

	var errResp map[string]string
	creds := map[string]string{"username": "nobody", "password": "abcd"}
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/auth/login", creds, &errResp))
	assert.Equal(t, http.StatusUnauthorized, api.do(http.MethodPost, "/auth/login", creds, &errResp))
	assert.Equal(t, http.StatusTooManyRequests, api.do(http.MethodPost, "/auth/login", creds, &errResp))

	// transaction routes are not limited
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, "/users/ghost/transactions", nil, &errResp))
}

func TestAPI_PublishesTransactionEvents(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	var events []models.TransactionEvent
	kafkaWriter := services.NewMockKafkaWriter(ctrl)
	kafkaWriter.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
			for _, msg := range msgs {
				var event models.TransactionEvent
				require.NoError(t, json.Unmarshal(msg.Value, &event))
				assert.Equal(t, event.UserID, string(msg.Key))
				events = append(events, event)
			}
			return nil
		}).
		Times(2)

	api, _ := newTestAPI(t, nil, kafkaWriter)

	var user userReply
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "abcd"}, &user))

	txPath := "/users/" + user.ID + "/transactions"
	input := map[string]any{"id": "tx-1", "type": "INGRESO", "amount": 100, "category": "salary", "date": "31/01/2024"}
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, txPath, input, nil))
	require.Equal(t, http.StatusOK, api.do(http.MethodDelete, txPath+"/tx-1", nil, nil))

	require.Len(t, events, 2)
	assert.Equal(t, models.EventOperationUpsert, events[0].Operation)
	require.NotNil(t, events[0].Transaction)
	assert.Equal(t, 100.0, events[0].Transaction.Amount)
	assert.Equal(t, models.EventOperationDelete, events[1].Operation)
	assert.Equal(t, "tx-1", events[1].TransactionID)
	assert.Nil(t, events[1].Transaction)
}

func TestNewKafkaWriter(t *testing.T) {
	w := newKafkaWriter(config{KafkaBrokers: []string{"kafka-1:9092", "kafka-2:9092"}, KafkaTopic: "events"})
	defer w.Close()

	assert.Equal(t, "events", w.Topic)
	assert.True(t, w.Async)
	assert.Equal(t, 10*time.Millisecond, w.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, w.Balancer)
	require.NotNil(t, w.Completion)
	w.Completion(nil, errors.New("broker unreachable"))
}

func TestAPI_SlowBrokerDoesNotHoldTheDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	entered := make(chan struct{})
	release := make(chan struct{})
	kafkaWriter := services.NewMockKafkaWriter(ctrl)
	kafkaWriter.EXPECT().
		WriteMessages(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ ...kafka.Message) error {
			close(entered)
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		})

	api, _ := newTestAPI(t, nil, kafkaWriter)

	var user userReply
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/auth/signup", map[string]string{"username": "alice", "password": "abcd"}, &user))

	txPath := "/users/" + user.ID + "/transactions"
	body := `{"id":"tx-1","type":"GASTO","amount":5,"category":"food","date":"01/01/2024"}`

	upsertStatus := make(chan int, 1)
	go func() {
		resp, err := http.Post(api.srv.URL+txPath, "application/json", bytes.NewBufferString(body))
		if err != nil {
			upsertStatus <- 0
			return
		}
		resp.Body.Close()
		upsertStatus <- resp.StatusCode
	}()

	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("event was never published")
	}

	// the upsert is stuck on the broker but its transaction is already committed
	start := time.Now()
	var list []models.TransactionDB
	require.Equal(t, http.StatusOK, api.do(http.MethodGet, txPath, nil, &list))
	assert.Less(t, time.Since(start), time.Second)
	assert.Len(t, list, 1)

	close(release)
	assert.Equal(t, http.StatusOK, <-upsertStatus)
}
