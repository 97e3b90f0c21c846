package posapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"molle_pos/internal/config"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const apiMediaType = "application/json"

const (
	pathProducts          = "products/"
	pathProductsByBarcode = "products/by_barcode/"
	pathProductsLowStock  = "products/low_stock/"
	pathSalesInvoices     = "sales-invoices/"
	pathInvoicesToday     = "sales-invoices/today/"
	pathInvoiceStatistics = "sales-invoices/statistics/"
	pathCustomers         = "customers/"
	pathPOSTransactions   = "pos-transactions/"
)

// Service lists one call per server endpoint.
type Service interface {
	ListProducts(ctx context.Context) ([]Product, error)
	ProductByBarcode(ctx context.Context, barcode string) (Product, error)
	ListLowStockProducts(ctx context.Context) ([]Product, error)
	ListSalesInvoices(ctx context.Context) ([]SalesInvoice, error)
	ListTodayInvoices(ctx context.Context) ([]SalesInvoice, error)
	SalesStatistics(ctx context.Context) (Statistics, error)
	CreateSalesInvoice(ctx context.Context, req SalesInvoiceRequest) (SalesInvoice, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	CreateTransaction(ctx context.Context, req TransactionRequest) (TransactionResponse, error)
}

var _ Service = (*Client)(nil)

// Client is safe for concurrent use.
type Client struct {
	http     *resty.Client
	token    string
	validate *validator.Validate
	logger   *zap.Logger
}

func NewClient(cfg config.Config, logger *zap.Logger) *Client {
	cfg = cfg.Normalize()
	logger = logger.Named("posapi")

	httpClient := resty.New().
		SetBaseURL(cfg.APIBaseURL).
		SetHeader("Accept", apiMediaType).
		SetHeader("Content-Type", apiMediaType).
		SetTimeout(cfg.Timeout).
		OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
			logger.Debug("pos api call",
				zap.String("method", resp.Request.Method),
				zap.String("url", resp.Request.URL),
				zap.Int("status", resp.StatusCode()),
				zap.Duration("latency", resp.Time()),
			)
			return nil
		})

	if cfg.AuthToken != "" {
		httpClient.SetAuthScheme(cfg.AuthScheme)
		httpClient.SetAuthToken(cfg.AuthToken)
	}

	return &Client{
		http:     httpClient,
		token:    cfg.AuthToken,
		validate: newValidator(),
		logger:   logger,
	}
}

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	return listAll[Product](ctx, c, pathProducts)
}

// ProductByBarcode returns an error matching ErrNotFound when no product
// carries the barcode.
func (c *Client) ProductByBarcode(ctx context.Context, barcode string) (Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return Product{}, ErrEmptyBarcode
	}

	var product Product
	query := map[string]string{"barcode": barcode}
	if err := c.doGet(ctx, pathProductsByBarcode, query, &product); err != nil {
		return Product{}, err
	}
	return product, nil
}

func (c *Client) ListLowStockProducts(ctx context.Context) ([]Product, error) {
	return listAll[Product](ctx, c, pathProductsLowStock)
}

func (c *Client) ListSalesInvoices(ctx context.Context) ([]SalesInvoice, error) {
	return listAll[SalesInvoice](ctx, c, pathSalesInvoices)
}

func (c *Client) ListTodayInvoices(ctx context.Context) ([]SalesInvoice, error) {
	return listAll[SalesInvoice](ctx, c, pathInvoicesToday)
}

func (c *Client) SalesStatistics(ctx context.Context) (Statistics, error) {
	var stats Statistics
	if err := c.doGet(ctx, pathInvoiceStatistics, nil, &stats); err != nil {
		return Statistics{}, err
	}
	for name, period := range map[string]PeriodStats{"today": stats.Today, "month": stats.Month} {
		if period.Count < 0 || period.Total.IsNegative() {
			return Statistics{}, fmt.Errorf("%w: negative %s statistics", ErrMalformedResponse, name)
		}
	}
	return stats, nil
}

func (c *Client) CreateSalesInvoice(ctx context.Context, req SalesInvoiceRequest) (SalesInvoice, error) {
	if err := validateRequest(c.validate, req); err != nil {
		return SalesInvoice{}, err
	}

	var invoice SalesInvoice
	if err := c.doPost(ctx, pathSalesInvoices, req, &invoice); err != nil {
		return SalesInvoice{}, err
	}
	return invoice, nil
}

func (c *Client) ListCustomers(ctx context.Context) ([]Customer, error) {
	return listAll[Customer](ctx, c, pathCustomers)
}

func (c *Client) CreateTransaction(ctx context.Context, req TransactionRequest) (TransactionResponse, error) {
	if err := validateRequest(c.validate, req); err != nil {
		return TransactionResponse{}, err
	}

	var txn TransactionResponse
	if err := c.doPost(ctx, pathPOSTransactions, req, &txn); err != nil {
		return TransactionResponse{}, err
	}
	return txn, nil
}

// listAll follows "next" links until the server stops paginating. A bare
// array response is a single page.
func listAll[T any](ctx context.Context, c *Client, path string) ([]T, error) {
	items := []T{}
	seen := map[string]bool{}

	for next := path; next != "" && !seen[next]; {
		seen[next] = true

		var page listPage[T]
		if err := c.doGet(ctx, next, nil, &page); err != nil {
			return nil, err
		}
		items = append(items, page.Results...)
		next = page.Next
	}

	return items, nil
}

func (c *Client) doGet(ctx context.Context, path string, query map[string]string, result any) error {
	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	return c.execute(req, http.MethodGet, path, result)
}

func (c *Client) doPost(ctx context.Context, path string, body, result any) error {
	req := c.http.R().SetContext(ctx).SetBody(body)
	return c.execute(req, http.MethodPost, path, result)
}

func (c *Client) execute(req *resty.Request, method, path string, result any) error {
	if !c.hasToken() {
		return ErrMissingToken
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.logger.Warn("pos api unreachable",
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %s %s: %w", ErrTransport, method, path, err)
	}
	if resp.IsError() {
		return apiErrorFromResponse(resp)
	}

	if err := json.Unmarshal(resp.Body(), result); err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrMalformedResponse, method, path, err)
	}
	return nil
}

func (c *Client) hasToken() bool {
	return strings.TrimSpace(c.token) != ""
}
