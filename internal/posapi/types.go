package posapi

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSubmitted InvoiceStatus = "submitted"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "cash"
	PaymentCard     PaymentMethod = "card"
	PaymentCheck    PaymentMethod = "check"
	PaymentTransfer PaymentMethod = "transfer"
	PaymentCredit   PaymentMethod = "credit"
)

type Product struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	NameAR         string          `json:"name_ar"`
	NameEN         string          `json:"name_en"`
	Barcode        string          `json:"barcode"`
	CostPrice      decimal.Decimal `json:"cost_price"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	IsActive       bool            `json:"is_active"`
}

type Customer struct {
	ID      uuid.UUID       `json:"id"`
	Name    string          `json:"name"`
	Email   string          `json:"email"`
	Phone   string          `json:"phone"`
	Balance decimal.Decimal `json:"balance"`
}

type SalesInvoice struct {
	ID            uuid.UUID          `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	Customer      Customer           `json:"customer"`
	InvoiceDate   string             `json:"invoice_date"`
	Status        InvoiceStatus      `json:"status"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	Items         []SalesInvoiceItem `json:"items"`
}

// Date parses InvoiceDate, which the server sends as YYYY-MM-DD.
func (i SalesInvoice) Date() (time.Time, error) {
	return time.Parse(time.DateOnly, i.InvoiceDate)
}

// SalesInvoiceItem.TotalAmount is computed by the server and never derived here.
type SalesInvoiceItem struct {
	ID          uuid.UUID       `json:"id"`
	Product     Product         `json:"product"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

type PeriodStats struct {
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

type Statistics struct {
	Today PeriodStats `json:"today"`
	Month PeriodStats `json:"month"`
}

type SalesInvoiceItemRequest struct {
	ProductID uuid.UUID       `json:"product_id" validate:"required"`
	Quantity  int             `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"gte=0"`
}

// SalesInvoiceRequest is the body of a create-invoice call. Notes defaults
// to the empty string and is always sent.
type SalesInvoiceRequest struct {
	CustomerID uuid.UUID                 `json:"customer_id" validate:"required"`
	Items      []SalesInvoiceItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes      string                    `json:"notes"`
}

// TransactionRequest is the body of a create-transaction call.
// ReferenceNumber defaults to the empty string and is always sent.
type TransactionRequest struct {
	TransactionType string          `json:"transaction_type" validate:"required"`
	Amount          decimal.Decimal `json:"amount" validate:"gte=0"`
	PaymentMethod   PaymentMethod   `json:"payment_method" validate:"required,oneof=cash card check transfer credit"`
	ReferenceNumber string          `json:"reference_number"`
}

// TransactionResponse keeps CreatedAt exactly as the server sent it. A
// timestamp the client cannot parse must not turn a saved transaction into
// an error, so parsing is left to Created.
type TransactionResponse struct {
	ID              uuid.UUID       `json:"id"`
	TransactionType string          `json:"transaction_type"`
	Amount          decimal.Decimal `json:"amount"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	CreatedAt       string          `json:"created_at"`
}

// Servers running without time zone support send naive timestamps. Those
// are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
}

// Created parses CreatedAt.
func (t TransactionResponse) Created() (time.Time, error) {
	return parseTimestamp(t.CreatedAt)
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	var firstErr error
	for _, layout := range timestampLayouts {
		ts, err := time.Parse(layout, value)
		if err == nil {
			return ts, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// listPage accepts both a bare JSON array and the paginated envelope the
// server switches to when pagination is enabled.
type listPage[T any] struct {
	Results []T
	Next    string
}

type pageEnvelope[T any] struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []T     `json:"results"`
}

func (p *listPage[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		p.Next = ""
		return json.Unmarshal(trimmed, &p.Results)
	}

	var env pageEnvelope[T]
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return err
	}
	p.Results = env.Results
	p.Next = ""
	if env.Next != nil {
		p.Next = *env.Next
	}
	return nil
}
