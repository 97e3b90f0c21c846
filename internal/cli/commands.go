package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"molle_pos/internal/config"
	"molle_pos/internal/dashboard"
	"molle_pos/internal/posapi"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type command struct {
	usage    string
	needsAPI bool
	run      func(inv *invocation) (any, error)
}

var commands = map[string]command{
	"products":           {usage: "List products", needsAPI: true, run: runProducts},
	"barcode":            {usage: "Find a product by barcode: barcode CODE", needsAPI: true, run: runBarcode},
	"low-stock":          {usage: "List low-stock products", needsAPI: true, run: runLowStock},
	"invoices":           {usage: "List sales invoices [-today]", needsAPI: true, run: runInvoices},
	"stats":              {usage: "Show today and month sales statistics", needsAPI: true, run: runStats},
	"customers":          {usage: "List customers", needsAPI: true, run: runCustomers},
	"create-invoice":     {usage: "Create a sales invoice -customer ID -item PRODUCT:QTY:PRICE... [-notes]", needsAPI: true, run: runCreateInvoice},
	"create-transaction": {usage: "Create a POS transaction -type T -amount A -method M [-ref R]", needsAPI: true, run: runCreateTransaction},
	"dashboard":          {usage: "Show statistics, today's invoices and low stock [-watch]", needsAPI: true, run: runDashboard},
	"prefs":              {usage: "Show or edit preferences: prefs [get KEY | set KEY VALUE | delete KEY]", run: runPrefs},
}

func runProducts(inv *invocation) (any, error) {
	return inv.client.ListProducts(inv.ctx)
}

func runBarcode(inv *invocation) (any, error) {
	if len(inv.args) != 1 {
		return nil, errors.New("usage: barcode CODE")
	}
	return inv.client.ProductByBarcode(inv.ctx, inv.args[0])
}

func runLowStock(inv *invocation) (any, error) {
	return inv.client.ListLowStockProducts(inv.ctx)
}

func runInvoices(inv *invocation) (any, error) {
	var today bool
	fs := newSubcommandFlags("invoices")
	fs.BoolVar(&today, "today", false, "Only invoices dated today")
	if err := fs.Parse(inv.args); err != nil {
		return nil, err
	}

	if today {
		return inv.client.ListTodayInvoices(inv.ctx)
	}
	return inv.client.ListSalesInvoices(inv.ctx)
}

func runStats(inv *invocation) (any, error) {
	return inv.client.SalesStatistics(inv.ctx)
}

func runCustomers(inv *invocation) (any, error) {
	return inv.client.ListCustomers(inv.ctx)
}

func runCreateInvoice(inv *invocation) (any, error) {
	var (
		customer string
		items    itemList
		req      posapi.SalesInvoiceRequest
	)
	fs := newSubcommandFlags("create-invoice")
	fs.StringVar(&customer, "customer", "", "Customer ID")
	fs.Var(&items, "item", "Line item PRODUCT_ID:QUANTITY:UNIT_PRICE (repeatable)")
	fs.StringVar(&req.Notes, "notes", "", "Invoice notes")
	if err := fs.Parse(inv.args); err != nil {
		return nil, err
	}

	customerID, err := uuid.Parse(strings.TrimSpace(customer))
	if err != nil {
		return nil, fmt.Errorf("invalid -customer: %w", err)
	}
	req.CustomerID = customerID
	req.Items = items
	return inv.client.CreateSalesInvoice(inv.ctx, req)
}

func runCreateTransaction(inv *invocation) (any, error) {
	var (
		amount string
		method string
		req    posapi.TransactionRequest
	)
	fs := newSubcommandFlags("create-transaction")
	fs.StringVar(&req.TransactionType, "type", "", "Transaction type")
	fs.StringVar(&amount, "amount", "", "Amount")
	fs.StringVar(&method, "method", string(posapi.PaymentCash), "Payment method: cash, card, check, transfer or credit")
	fs.StringVar(&req.ReferenceNumber, "ref", "", "Reference number")
	if err := fs.Parse(inv.args); err != nil {
		return nil, err
	}

	value, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		return nil, fmt.Errorf("invalid -amount: %w", err)
	}
	req.Amount = value
	req.PaymentMethod = posapi.PaymentMethod(strings.ToLower(strings.TrimSpace(method)))
	return inv.client.CreateTransaction(inv.ctx, req)
}

func runDashboard(inv *invocation) (any, error) {
	var watch bool
	fs := newSubcommandFlags("dashboard")
	fs.BoolVar(&watch, "watch", false, "Refresh every sync interval until interrupted")
	if err := fs.Parse(inv.args); err != nil {
		return nil, err
	}

	loader := inv.runner.newLoader(inv.client, inv.cfg)
	if !watch {
		return loader.Sync(inv.ctx)
	}

	var writeErr error
	err := loader.Watch(inv.ctx, func(snap dashboard.Snapshot) {
		if writeErr == nil {
			writeErr = inv.runner.write(inv.opts, snap)
		}
	})
	if err != nil {
		return nil, err
	}
	return nil, writeErr
}

func runPrefs(inv *invocation) (any, error) {
	store := inv.runner.prefs
	args := inv.args

	if len(args) == 0 {
		return store.All(inv.ctx)
	}

	switch {
	case args[0] == "get" && len(args) == 2:
		value, ok, err := store.Get(inv.ctx, args[1])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("preference %q is not set", args[1])
		}
		return map[string]string{args[1]: value}, nil
	case args[0] == "set" && len(args) == 3:
		if !knownPrefKey(args[1]) {
			return nil, fmt.Errorf("unknown preference %q, expected one of %s", args[1], strings.Join(config.PrefKeys(), ", "))
		}
		if err := store.Set(inv.ctx, args[1], args[2]); err != nil {
			return nil, err
		}
		return store.All(inv.ctx)
	case args[0] == "delete" && len(args) == 2:
		if err := store.Delete(inv.ctx, args[1]); err != nil {
			return nil, err
		}
		return store.All(inv.ctx)
	default:
		return nil, errors.New("usage: prefs [get KEY | set KEY VALUE | delete KEY]")
	}
}

func knownPrefKey(key string) bool {
	for _, k := range config.PrefKeys() {
		if k == key {
			return true
		}
	}
	return false
}

func newSubcommandFlags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// itemList collects repeated -item PRODUCT_ID:QUANTITY:UNIT_PRICE flags.
type itemList []posapi.SalesInvoiceItemRequest

func (l *itemList) String() string {
	parts := make([]string, 0, len(*l))
	for _, item := range *l {
		parts = append(parts, fmt.Sprintf("%s:%d:%s", item.ProductID, item.Quantity, item.UnitPrice))
	}
	return strings.Join(parts, ",")
}

func (l *itemList) Set(value string) error {
	item, err := parseItem(value)
	if err != nil {
		return err
	}
	*l = append(*l, item)
	return nil
}

func parseItem(value string) (posapi.SalesInvoiceItemRequest, error) {
	fields := strings.Split(strings.TrimSpace(value), ":")
	if len(fields) != 3 {
		return posapi.SalesInvoiceItemRequest{}, fmt.Errorf("item %q: want PRODUCT_ID:QUANTITY:UNIT_PRICE", value)
	}

	productID, err := uuid.Parse(fields[0])
	if err != nil {
		return posapi.SalesInvoiceItemRequest{}, fmt.Errorf("item %q: product id: %w", value, err)
	}
	quantity, err := strconv.Atoi(fields[1])
	if err != nil {
		return posapi.SalesInvoiceItemRequest{}, fmt.Errorf("item %q: quantity: %w", value, err)
	}
	price, err := decimal.NewFromString(fields[2])
	if err != nil {
		return posapi.SalesInvoiceItemRequest{}, fmt.Errorf("item %q: unit price: %w", value, err)
	}

	return posapi.SalesInvoiceItemRequest{
		ProductID: productID,
		Quantity:  quantity,
		UnitPrice: price,
	}, nil
}
