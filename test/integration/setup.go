package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"table-booking/internal/catalog"
	"table-booking/internal/config"
	"table-booking/internal/database"
	"table-booking/internal/handler"
	"table-booking/internal/model"
	"table-booking/internal/notify"
	"table-booking/internal/payment"
	"table-booking/internal/repository"
	"table-booking/internal/router"
	"table-booking/internal/service"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testAPIKey     = "test-api-key"
	testPublicURL  = "https://api.example.com"
	testFrontend   = "https://site.example.com/booking"
	testSecret     = "integration-secret"
	testAdminEmail = "admin@example.com"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container, a connection pool and the schema.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// SeedProducts inserts test menu products. P001 is stock-tracked with 10 units.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	ten := 10
	products := []struct {
		id         string
		name       string
		priceCents int64
		category   string
		stock      *int
	}{
		{"P001", "Tasting Menu", 4500, "menu", &ten},
		{"P002", "House Wine", 2200, "drinks", nil},
		{"P003", "Gift Voucher", 0, "voucher", nil},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, price_cents, category, stock) VALUES ($1, $2, $3, $4, $5)",
			p.id, p.name, p.priceCents, p.category, p.stock,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{"booking_verifications", "bookings", "order_items", "orders", "cart_items", "carts", "products"}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// testEvents is the catalog served to the API under test.
func testEvents() []model.Event {
	start := time.Now().Add(72 * time.Hour).UTC().Truncate(time.Minute)
	return []model.Event{
		{Ref: "EV-DINNER", Label: "Chef's table", Tier: "standard", Date: start, PriceCents: 6000},
		{Ref: "EV-TASTING", Label: "Wine tasting", Tier: "free", Date: start, PriceCents: 1500, EmailOnly: true},
		{Ref: "EV-PAST", Label: "Brunch", Date: time.Now().Add(-time.Hour).UTC(), PriceCents: 0, EmailOnly: true},
	}
}

// fakeGateway is an in-memory hosted-checkout API. States are set per remote
// order by the test before polling.
type fakeGateway struct {
	mu      sync.Mutex
	orders  map[string]string
	creates int
	fail    bool
}

func newFakeGateway(t *testing.T) (*fakeGateway, *httptest.Server) {
	t.Helper()

	g := &fakeGateway{orders: make(map[string]string)}
	srv := httptest.NewServer(http.HandlerFunc(g.serveHTTP))
	t.Cleanup(srv.Close)
	return g, srv
}

func (g *fakeGateway) serveHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "Bearer gw-key" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/orders":
		if g.fail {
			http.Error(w, `{"message":"unavailable"}`, http.StatusServiceUnavailable)
			return
		}
		g.creates++
		id := "gw-" + uuid.NewString()
		g.orders[id] = payment.StateCreated
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"id":           id,
			"token":        "tok-" + id,
			"state":        payment.StateCreated,
			"checkout_url": "https://pay.example.com/" + id,
		})

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/orders/"):
		id := strings.TrimPrefix(r.URL.Path, "/orders/")
		state, ok := g.orders[id]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"id": id, "state": state})

	default:
		http.NotFound(w, r)
	}
}

// setState moves every remote order to state.
func (g *fakeGateway) setState(state string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id := range g.orders {
		g.orders[id] = state
	}
}

func (g *fakeGateway) setUnavailable(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail = fail
}

// recordingPublisher captures every published notification.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg notify.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = nil
}

// byKind returns the captured messages of one kind in publish order.
func (p *recordingPublisher) byKind(kind notify.Kind) []notify.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []notify.Message
	for _, m := range p.messages {
		if m.Kind == kind {
			out = append(out, m)
		}
	}
	return out
}

// testServer bundles the API under test with its fakes.
type testServer struct {
	handler      http.Handler
	orders       service.OrderService
	confirmation service.ConfirmationService
	gateway      *fakeGateway
	published    *recordingPublisher
}

func setupTestServer(t *testing.T, testDB *TestDB) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	gw, gwServer := newFakeGateway(t)
	publisher := &recordingPublisher{}

	serverCfg := config.ServerConfig{PublicAPIURL: testPublicURL, FrontendURL: testFrontend}
	verifyCfg := config.VerificationConfig{
		SigningSecret:   testSecret,
		LegacyTokenTTL:  15 * time.Minute,
		BookingTokenTTL: 24 * time.Hour,
		CookieName:      "order_verify_token",
		CookieSecure:    true,
	}
	gatewayCfg := config.GatewayConfig{
		Provider: "hosted-checkout",
		BaseURL:  gwServer.URL,
		APIKey:   "gw-key",
		Currency: "EUR",
		Timeout:  5 * time.Second,
	}

	txr := repository.NewTransactor(testDB.Pool, logger)
	cartRepo := repository.NewCartRepository(testDB.Pool, logger)
	orderRepo := repository.NewOrderRepository(testDB.Pool, logger)
	productRepo := repository.NewProductRepository(testDB.Pool, logger)
	bookingRepo := repository.NewBookingRepository(testDB.Pool, logger)
	verificationRepo := repository.NewVerificationRepository(testDB.Pool, logger)

	events := catalog.NewStaticCatalog(testEvents(), logger)
	notifier := notify.NewNotifier(publisher, testAdminEmail, logger)
	gateway := payment.NewHTTPGateway(gatewayCfg, logger)

	tokens := service.NewTokenStore(verificationRepo, bookingRepo, logger)
	materializer := service.NewBookingMaterializer(bookingRepo, logger)
	cartService := service.NewCartService(txr, cartRepo, productRepo, events, logger)
	orderService := service.NewOrderService(txr, cartRepo, orderRepo, productRepo, bookingRepo, materializer, gateway, notifier, gatewayCfg, logger)
	bookingService := service.NewBookingService(txr, bookingRepo, tokens, events, notifier, serverCfg, verifyCfg, logger)
	confirmationService := service.NewConfirmationService(txr, cartRepo, orderRepo, bookingRepo, tokens, orderService, notifier, serverCfg, verifyCfg, logger)

	handlers := router.Handlers{
		Cart:    handler.NewCartHandler(cartService, logger),
		Order:   handler.NewOrderHandler(orderService, confirmationService, logger),
		Booking: handler.NewBookingHandler(bookingService, logger),
		Confirm: handler.NewConfirmHandler(confirmationService, serverCfg, verifyCfg, logger),
	}

	return &testServer{
		handler:      router.New(handlers, testAPIKey, nil, config.RateLimitConfig{}, logger),
		orders:       orderService,
		confirmation: confirmationService,
		gateway:      gw,
		published:    publisher,
	}
}
