package posapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"molle_pos/internal/config"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const testToken = "secret-token"

var (
	productID  = uuid.MustParse("0b6f1d2e-3c4a-4f5b-8a9c-1d2e3f4a5b6c")
	product2ID = uuid.MustParse("1c7f2e3d-4b5a-4c6d-9e8f-2a3b4c5d6e7f")
	customerID = uuid.MustParse("2d8e3f4a-5b6c-4d7e-8f9a-3b4c5d6e7f8a")
)

const productJSON = `{
	"id": "0b6f1d2e-3c4a-4f5b-8a9c-1d2e3f4a5b6c",
	"code": "P-001",
	"name_ar": "قهوة",
	"name_en": "Coffee",
	"barcode": "6221234567890",
	"cost_price": "8.50",
	"selling_price": "12.00",
	"quantity_on_hand": "42.00",
	"is_active": true
}`

const customerJSON = `{
	"id": "2d8e3f4a-5b6c-4d7e-8f9a-3b4c5d6e7f8a",
	"name": "Walk-in",
	"email": "walkin@example.com",
	"phone": "+201000000000",
	"balance": "150.25"
}`

type ClientSuite struct {
	suite.Suite
	router *chi.Mux
	server *httptest.Server
	client *Client
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientSuite))
}

func (s *ClientSuite) SetupTest() {
	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Token "+testToken {
				writeJSON(w, http.StatusUnauthorized, `{"detail":"Authentication credentials were not provided."}`)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	s.server = httptest.NewServer(s.router)
	s.client = NewClient(s.config(), zap.NewNop())
}

func (s *ClientSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientSuite) config() config.Config {
	cfg := config.Default()
	cfg.APIBaseURL = s.server.URL + "/api/v1/"
	cfg.AuthToken = testToken
	cfg.Timeout = 2 * time.Second
	return cfg
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *ClientSuite) TestListProductsRoundTripsFields() {
	s.router.Get("/api/v1/products/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "["+productJSON+"]")
	})

	products, err := s.client.ListProducts(context.Background())
	s.Require().NoError(err)
	s.Require().Len(products, 1)

	p := products[0]
	s.Equal(productID, p.ID)
	s.Equal("P-001", p.Code)
	s.Equal("قهوة", p.NameAR)
	s.Equal("Coffee", p.NameEN)
	s.Equal("6221234567890", p.Barcode)
	s.True(decimal.RequireFromString("8.5").Equal(p.CostPrice))
	s.True(decimal.RequireFromString("12").Equal(p.SellingPrice))
	s.True(decimal.NewFromInt(42).Equal(p.QuantityOnHand))
	s.True(p.IsActive)
}

func (s *ClientSuite) TestListProductsFollowsPagination() {
	s.router.Get("/api/v1/products/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			writeJSON(w, http.StatusOK, `{"count":2,"next":null,"previous":null,"results":[`+productJSON+`]}`)
			return
		}
		next := s.server.URL + "/api/v1/products/?page=2"
		writeJSON(w, http.StatusOK, `{"count":2,"next":"`+next+`","previous":null,"results":[`+productJSON+`]}`)
	})

	products, err := s.client.ListProducts(context.Background())
	s.Require().NoError(err)
	s.Len(products, 2)
}

func (s *ClientSuite) TestListEmptyReturnsEmptySlice() {
	s.router.Get("/api/v1/products/low_stock/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})

	products, err := s.client.ListLowStockProducts(context.Background())
	s.Require().NoError(err)
	s.NotNil(products)
	s.Empty(products)
}

func (s *ClientSuite) TestProductByBarcode() {
	s.router.Get("/api/v1/products/by_barcode/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("barcode") != "6221234567890" {
			writeJSON(w, http.StatusNotFound, `{"error":"Product not found"}`)
			return
		}
		writeJSON(w, http.StatusOK, productJSON)
	})

	product, err := s.client.ProductByBarcode(context.Background(), " 6221234567890 ")
	s.Require().NoError(err)
	s.Equal(productID, product.ID)

	_, err = s.client.ProductByBarcode(context.Background(), "0000")
	s.Require().Error(err)
	s.True(errors.Is(err, ErrNotFound))

	var apiErr *APIError
	s.Require().True(errors.As(err, &apiErr))
	s.Equal(http.StatusNotFound, apiErr.StatusCode)
	s.Equal("Product not found", apiErr.Detail)
	s.Contains(apiErr.Body, "Product not found")
}

func (s *ClientSuite) TestProductByBarcodeRejectsEmpty() {
	_, err := s.client.ProductByBarcode(context.Background(), "   ")
	s.ErrorIs(err, ErrEmptyBarcode)
}

func (s *ClientSuite) TestListInvoices() {
	invoice := `{
		"id": "3e9f4a5b-6c7d-4e8f-9a0b-4c5d6e7f8a9b",
		"invoice_number": "INV-0001",
		"customer": ` + customerJSON + `,
		"invoice_date": "2026-10-16",
		"status": "paid",
		"total_amount": "24.00",
		"items": [{
			"id": "4f0a5b6c-7d8e-4f9a-8b1c-5d6e7f8a9b0c",
			"product": ` + productJSON + `,
			"quantity": 2,
			"unit_price": "12.00",
			"total_amount": "24.00"
		}]
	}`
	s.router.Get("/api/v1/sales-invoices/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "["+invoice+"]")
	})
	s.router.Get("/api/v1/sales-invoices/today/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "["+invoice+","+invoice+"]")
	})

	invoices, err := s.client.ListSalesInvoices(context.Background())
	s.Require().NoError(err)
	s.Require().Len(invoices, 1)

	inv := invoices[0]
	s.Equal("INV-0001", inv.InvoiceNumber)
	s.Equal(customerID, inv.Customer.ID)
	s.Equal("walkin@example.com", inv.Customer.Email)
	s.True(decimal.RequireFromString("150.25").Equal(inv.Customer.Balance))
	s.Equal(InvoiceStatusPaid, inv.Status)
	s.True(decimal.NewFromInt(24).Equal(inv.TotalAmount))
	date, err := inv.Date()
	s.Require().NoError(err)
	s.Equal(time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC), date)
	s.Require().Len(inv.Items, 1)
	s.Equal(productID, inv.Items[0].Product.ID)
	s.Equal(2, inv.Items[0].Quantity)
	s.True(decimal.NewFromInt(24).Equal(inv.Items[0].TotalAmount))

	today, err := s.client.ListTodayInvoices(context.Background())
	s.Require().NoError(err)
	s.Len(today, 2)
}

func (s *ClientSuite) TestSalesStatistics() {
	s.router.Get("/api/v1/sales-invoices/statistics/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"today":{"total":null,"count":0},"month":{"total":"1530.75","count":37}}`)
	})

	stats, err := s.client.SalesStatistics(context.Background())
	s.Require().NoError(err)
	s.True(stats.Today.Total.IsZero())
	s.Equal(0, stats.Today.Count)
	s.True(decimal.RequireFromString("1530.75").Equal(stats.Month.Total))
	s.Equal(37, stats.Month.Count)
	for _, period := range []PeriodStats{stats.Today, stats.Month} {
		s.False(period.Total.IsNegative())
		s.GreaterOrEqual(period.Count, 0)
	}
}

func (s *ClientSuite) TestSalesStatisticsRejectsNegative() {
	s.router.Get("/api/v1/sales-invoices/statistics/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"today":{"total":"-1","count":1},"month":{"total":"5","count":1}}`)
	})

	_, err := s.client.SalesStatistics(context.Background())
	s.ErrorIs(err, ErrMalformedResponse)
}

func (s *ClientSuite) TestCreateSalesInvoice() {
	var received map[string]any
	s.router.Post("/api/v1/sales-invoices/", func(w http.ResponseWriter, r *http.Request) {
		s.NoError(json.NewDecoder(r.Body).Decode(&received))

		var req SalesInvoiceRequest
		raw, _ := json.Marshal(received)
		s.NoError(json.Unmarshal(raw, &req))

		items := ""
		for i, item := range req.Items {
			if i > 0 {
				items += ","
			}
			items += `{"id":"` + uuid.NewString() + `","product":{"id":"` + item.ProductID.String() +
				`"},"quantity":` + jsonInt(item.Quantity) + `,"unit_price":"` + item.UnitPrice.String() +
				`","total_amount":"0"}`
		}
		writeJSON(w, http.StatusCreated, `{"id":"`+uuid.NewString()+`","invoice_number":"INV-0002","customer":{"id":"`+
			req.CustomerID.String()+`"},"invoice_date":"2026-10-16","status":"draft","total_amount":"0","items":[`+items+`]}`)
	})

	req := SalesInvoiceRequest{
		CustomerID: customerID,
		Items: []SalesInvoiceItemRequest{
			{ProductID: productID, Quantity: 2, UnitPrice: decimal.RequireFromString("12.00")},
			{ProductID: product2ID, Quantity: 1, UnitPrice: decimal.RequireFromString("3.25")},
		},
	}

	invoice, err := s.client.CreateSalesInvoice(context.Background(), req)
	s.Require().NoError(err)

	s.Equal(customerID.String(), received["customer_id"])
	s.Equal("", received["notes"])
	s.Equal(customerID, invoice.Customer.ID)
	s.Require().Len(invoice.Items, len(req.Items))
	for i, item := range req.Items {
		s.Equal(item.ProductID, invoice.Items[i].Product.ID)
		s.Equal(item.Quantity, invoice.Items[i].Quantity)
	}
}

func (s *ClientSuite) TestCreateSalesInvoiceValidation() {
	called := false
	s.router.Post("/api/v1/sales-invoices/", func(w http.ResponseWriter, _ *http.Request) {
		called = true
		writeJSON(w, http.StatusCreated, `{}`)
	})

	tests := []struct {
		name    string
		req     SalesInvoiceRequest
		message string
	}{
		{
			name:    "missing customer",
			req:     SalesInvoiceRequest{Items: []SalesInvoiceItemRequest{{ProductID: productID, Quantity: 1}}},
			message: "customer_id",
		},
		{
			name:    "no items",
			req:     SalesInvoiceRequest{CustomerID: customerID},
			message: "items",
		},
		{
			name:    "zero quantity",
			req:     SalesInvoiceRequest{CustomerID: customerID, Items: []SalesInvoiceItemRequest{{ProductID: productID}}},
			message: "items[0].quantity",
		},
		{
			name: "negative price",
			req: SalesInvoiceRequest{CustomerID: customerID, Items: []SalesInvoiceItemRequest{
				{ProductID: productID, Quantity: 1, UnitPrice: decimal.NewFromInt(-1)},
			}},
			message: "items[0].unit_price",
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.client.CreateSalesInvoice(context.Background(), tt.req)
			s.Require().ErrorIs(err, ErrInvalidRequest)
			s.Contains(err.Error(), tt.message)
		})
	}
	s.False(called)
}

func (s *ClientSuite) TestCreateTransactionEchoes() {
	var received map[string]any
	createdAt := time.Date(2026, 10, 16, 9, 30, 0, 123456000, time.UTC)
	s.router.Post("/api/v1/pos-transactions/", func(w http.ResponseWriter, r *http.Request) {
		s.NoError(json.NewDecoder(r.Body).Decode(&received))
		writeJSON(w, http.StatusCreated, `{"id":"`+uuid.NewString()+`","transaction_type":"`+received["transaction_type"].(string)+
			`","amount":"`+received["amount"].(string)+`","payment_method":"`+received["payment_method"].(string)+
			`","reference_number":"","created_at":"`+createdAt.Format(time.RFC3339Nano)+`"}`)
	})

	txn, err := s.client.CreateTransaction(context.Background(), TransactionRequest{
		TransactionType: "cash_in",
		Amount:          decimal.RequireFromString("100.50"),
		PaymentMethod:   PaymentCash,
	})
	s.Require().NoError(err)

	s.Equal("", received["reference_number"])
	s.Equal("cash_in", txn.TransactionType)
	s.True(decimal.RequireFromString("100.5").Equal(txn.Amount))
	s.Equal(PaymentCash, txn.PaymentMethod)
	s.NotEqual(uuid.Nil, txn.ID)
	created, err := txn.Created()
	s.Require().NoError(err)
	s.True(createdAt.Equal(created))
}

func (s *ClientSuite) TestCreateTransactionAcceptsNaiveTimestamp() {
	s.router.Post("/api/v1/pos-transactions/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusCreated, `{"id":"`+uuid.NewString()+`","transaction_type":"sale","amount":"20.00",
			"payment_method":"cash","reference_number":"","created_at":"2024-05-01T10:00:00.123456"}`)
	})

	txn, err := s.client.CreateTransaction(context.Background(), TransactionRequest{
		TransactionType: "sale",
		Amount:          decimal.NewFromInt(20),
		PaymentMethod:   PaymentCash,
	})
	s.Require().NoError(err)
	s.Equal("2024-05-01T10:00:00.123456", txn.CreatedAt)

	created, err := txn.Created()
	s.Require().NoError(err)
	s.Equal(time.Date(2024, 5, 1, 10, 0, 0, 123456000, time.UTC), created)
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, value := range []string{
		"2024-05-01T10:00:00Z",
		"2024-05-01T12:00:00+02:00",
		"2024-05-01T10:00:00",
		"2024-05-01 10:00:00",
		" 2024-05-01T10:00:00.000 ",
	} {
		ts, err := parseTimestamp(value)
		require.NoError(t, err, value)
		assert.True(t, want.Equal(ts), value)
	}

	_, err := parseTimestamp("yesterday")
	assert.Error(t, err)
}

func (s *ClientSuite) TestCreateTransactionValidation() {
	_, err := s.client.CreateTransaction(context.Background(), TransactionRequest{
		TransactionType: "sale",
		Amount:          decimal.NewFromInt(5),
		PaymentMethod:   "bitcoin",
	})
	s.Require().ErrorIs(err, ErrInvalidRequest)
	s.Contains(err.Error(), "payment_method")

	_, err = s.client.CreateTransaction(context.Background(), TransactionRequest{
		Amount:        decimal.NewFromInt(5),
		PaymentMethod: PaymentCard,
	})
	s.Require().ErrorIs(err, ErrInvalidRequest)
	s.Contains(err.Error(), "transaction_type")
}

func (s *ClientSuite) TestListCustomers() {
	s.router.Get("/api/v1/customers/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "["+customerJSON+"]")
	})

	customers, err := s.client.ListCustomers(context.Background())
	s.Require().NoError(err)
	s.Require().Len(customers, 1)
	s.Equal(Customer{
		ID:      customerID,
		Name:    "Walk-in",
		Email:   "walkin@example.com",
		Phone:   "+201000000000",
		Balance: customers[0].Balance,
	}, customers[0])
	s.Equal("150.25", customers[0].Balance.StringFixed(2))
}

func (s *ClientSuite) TestErrorClassification() {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusBadRequest, ErrBadRequest},
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrUnauthorized},
		{http.StatusNotFound, ErrNotFound},
		{http.StatusConflict, ErrClient},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusInternalServerError, ErrServer},
		{http.StatusBadGateway, ErrServer},
	}

	for _, tt := range tests {
		s.Run(http.StatusText(tt.status), func() {
			router := chi.NewRouter()
			router.Get("/api/v1/customers/", func(w http.ResponseWriter, _ *http.Request) {
				writeJSON(w, tt.status, `{"error":"No branch assigned"}`)
			})
			server := httptest.NewServer(router)
			defer server.Close()

			cfg := s.config()
			cfg.APIBaseURL = server.URL + "/api/v1/"
			_, err := NewClient(cfg, zap.NewNop()).ListCustomers(context.Background())

			s.Require().ErrorIs(err, tt.want)
			var apiErr *APIError
			s.Require().ErrorAs(err, &apiErr)
			s.Equal(tt.status, apiErr.StatusCode)
			s.Equal("No branch assigned", apiErr.Detail)
		})
	}
}

func (s *ClientSuite) TestUnauthorizedToken() {
	s.router.Get("/api/v1/customers/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, "["+customerJSON+"]")
	})

	cfg := s.config()
	cfg.AuthToken = "wrong"
	_, err := NewClient(cfg, zap.NewNop()).ListCustomers(context.Background())
	s.Require().ErrorIs(err, ErrUnauthorized)

	var apiErr *APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal(http.StatusUnauthorized, apiErr.StatusCode)
	s.Equal("Authentication credentials were not provided.", apiErr.Detail)
}

func (s *ClientSuite) TestMissingToken() {
	cfg := s.config()
	cfg.AuthToken = ""
	_, err := NewClient(cfg, zap.NewNop()).ListProducts(context.Background())
	s.ErrorIs(err, ErrMissingToken)
}

func (s *ClientSuite) TestMalformedBody() {
	s.router.Get("/api/v1/customers/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"results": "nope"`)
	})

	_, err := s.client.ListCustomers(context.Background())
	s.ErrorIs(err, ErrMalformedResponse)
}

func TestTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cfg := config.Default()
	cfg.APIBaseURL = url + "/api/v1/"
	cfg.AuthToken = testToken
	cfg.Timeout = time.Second

	_, err := NewClient(cfg, zap.NewNop()).ListProducts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTransport)

	var apiErr *APIError
	assert.False(t, errors.As(err, &apiErr))
}

func TestCanceledContext(t *testing.T) {
	router := chi.NewRouter()
	router.Get("/api/v1/products/", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `[]`)
	})
	server := httptest.NewServer(router)
	defer server.Close()

	cfg := config.Default()
	cfg.APIBaseURL = server.URL + "/api/v1/"
	cfg.AuthToken = testToken

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(cfg, zap.NewNop()).ListProducts(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrTransport)
}

func jsonInt(v int) string {
	raw, _ := json.Marshal(v)
	return string(raw)
}
