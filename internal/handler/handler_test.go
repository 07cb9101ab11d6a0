package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GTDGit/halal_inventory_api/internal/classification"
	"github.com/GTDGit/halal_inventory_api/internal/clock"
	"github.com/GTDGit/halal_inventory_api/internal/middleware"
	"github.com/GTDGit/halal_inventory_api/internal/models"
	"github.com/GTDGit/halal_inventory_api/internal/repository"
	"github.com/GTDGit/halal_inventory_api/internal/service"
	"github.com/GTDGit/halal_inventory_api/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubLedger keeps products in memory and implements only what the stock
// endpoints reach. Unused interface methods panic through the nil embed.
type stubLedger struct {
	service.LedgerStore
	mu       sync.Mutex
	products map[uuid.UUID]*models.Product
}

func (l *stubLedger) ApplyMutation(_ context.Context, id uuid.UUID, scope models.Scope, fn repository.MutationFunc) (*models.Product, *models.StockTransaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	p, ok := l.products[id]
	if !ok || !scope.Allows(p.Owner()) {
		return nil, nil, utils.ErrProductNotFound
	}
	locked := *p
	t, err := fn(&locked)
	if err != nil {
		return nil, nil, err
	}
	t.ID = 1
	t.ProductID = id
	p.CurrentStock = t.NewStock
	out := *p
	return &out, t, nil
}

type staticScopes struct{}

func (staticScopes) Resolve(_ context.Context, a *models.Actor) (models.Scope, error) {
	if a.StoreID == nil {
		return models.Scope{}, nil
	}
	return models.Scope{StoreIDs: []int64{*a.StoreID}}, nil
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }
func (p pinger) Ping(context.Context) error        { return p.err }

type testServer struct {
	router  *gin.Engine
	token   string
	ledger  *stubLedger
	product uuid.UUID
}

func newTestServer(t *testing.T, db DBPinger) *testServer {
	t.Helper()
	clk := clock.NewMockClock(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	policy := classification.Policy{HorizonDays: 30}

	storeID := int64(1)
	id := uuid.New()
	ledger := &stubLedger{products: map[uuid.UUID]*models.Product{
		id: {
			ID:           id,
			Name:         "Beef Mince",
			SKU:          "BEEF-1",
			StoreID:      &storeID,
			Price:        decimal.RequireFromString("9.99"),
			CostPrice:    decimal.RequireFromString("6.50"),
			CurrentStock: 5,
			MinimumStock: 10,
			MaximumStock: 1000,
			IsCertified:  true,
			IsActive:     true,
		},
	}}

	stock := service.NewStockService(ledger, nil, nil, clk, time.UTC)
	products := service.NewProductService(nil, nil, nil, service.NewLabelService(), policy, clk, time.UTC)
	pos := service.NewPOSService(stock, nil, nil)

	jwt := utils.NewJWTManager("test-secret", time.Hour)
	token, _, err := jwt.GenerateJWT(utils.JWTClaims{UserID: 10, Role: string(models.RoleStoreOwner), StoreID: &storeID})
	require.NoError(t, err)

	router := gin.New()
	SetupRoutes(router, &Handlers{
		Health:  NewHealthHandler(db, nil),
		Product: NewProductHandler(products, stock, nil),
		POS:     NewPOSHandler(pos),
	}, RouteOptions{JWT: middleware.NewJWTMiddleware(jwt, staticScopes{}, nil)})

	return &testServer{router: router, token: token, ledger: ledger, product: id}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.ErrorInfo
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func TestUpdateStock(t *testing.T) {
	s := newTestServer(t, pinger{})
	path := "/api/v1/products/" + s.product.String() + "/update_stock"

	w := s.do(http.MethodPost, path, `{"transaction_type":"IN","quantity":20,"reason":"Delivery"}`)
	require.Equal(t, 200, w.Code, w.Body.String())
	env := decode(t, w)
	var out struct {
		CurrentStock int    `json:"current_stock"`
		StockStatus  string `json:"stock_status"`
		Transaction  struct {
			PreviousStock int `json:"previous_stock"`
			NewStock      int `json:"new_stock"`
		} `json:"transaction"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &out))
	assert.Equal(t, 25, out.CurrentStock)
	assert.Equal(t, "NORMAL", out.StockStatus)
	assert.Equal(t, 5, out.Transaction.PreviousStock)
	assert.Equal(t, 25, out.Transaction.NewStock)
}

func TestUpdateStock_InsufficientStockContract(t *testing.T) {
	s := newTestServer(t, pinger{})
	path := "/api/v1/products/" + s.product.String() + "/update_stock"

	w := s.do(http.MethodPost, path, `{"transaction_type":"OUT","quantity":6}`)
	require.Equal(t, 400, w.Code)
	env := decode(t, w)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INSUFFICIENT_STOCK", env.Error.Code)
	require.NotNil(t, env.Error.AvailableStock)
	assert.Equal(t, 5, *env.Error.AvailableStock)
	assert.Equal(t, 5, s.ledger.products[s.product].CurrentStock)
}

func TestUpdateStock_Rejections(t *testing.T) {
	s := newTestServer(t, pinger{})
	path := "/api/v1/products/" + s.product.String() + "/update_stock"

	tests := []struct {
		name   string
		path   string
		body   string
		status int
		code   string
	}{
		{"expired kind reserved", path, `{"transaction_type":"EXPIRED","quantity":1}`, 400, "VALIDATION_ERROR"},
		{"zero quantity", path, `{"transaction_type":"OUT","quantity":0}`, 400, "VALIDATION_ERROR"},
		{"missing quantity", path, `{"transaction_type":"IN"}`, 400, "INVALID_REQUEST"},
		{"bad id", "/api/v1/products/nope/update_stock", `{"transaction_type":"IN","quantity":1}`, 400, "INVALID_ID"},
		{"unknown product", "/api/v1/products/" + uuid.NewString() + "/update_stock", `{"transaction_type":"IN","quantity":1}`, 404, "PRODUCT_NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPost, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code)
			env := decode(t, w)
			require.NotNil(t, env.Error)
			assert.Equal(t, tt.code, env.Error.Code)
		})
	}

	s.token = ""
	w := s.do(http.MethodPost, path, `{"transaction_type":"IN","quantity":1}`)
	assert.Equal(t, 401, w.Code)
}

func TestPOSSales_AllFailedIsBadRequest(t *testing.T) {
	s := newTestServer(t, pinger{})

	w := s.do(http.MethodPost, "/api/v1/pos/sales", `{"sales":[{"product_id":"not-a-uuid","quantity_sold":1}]}`)
	require.Equal(t, 400, w.Code)
	env := decode(t, w)
	var res service.POSBatchResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Success)
	assert.Equal(t, 1, res.FailedCount)

	body := `{"sales":[{"product_id":"` + s.product.String() + `","quantity_sold":2}]}`
	w = s.do(http.MethodPost, "/api/v1/pos/sales", body)
	require.Equal(t, 200, w.Code, w.Body.String())
	assert.Equal(t, 3, s.ledger.products[s.product].CurrentStock)
}

func TestHealth(t *testing.T) {
	ok := newTestServer(t, pinger{})
	w := ok.do(http.MethodGet, "/health", "")
	assert.Equal(t, 200, w.Code)
	assert.Contains(t, w.Body.String(), `"redis":{"status":"disabled"}`)

	down := newTestServer(t, pinger{err: errors.New("connection refused")})
	w = down.do(http.MethodGet, "/health", "")
	assert.Equal(t, 503, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"unhealthy"`)
}
