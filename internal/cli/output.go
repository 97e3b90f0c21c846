package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"molle_pos/internal/config"
	"molle_pos/internal/dashboard"
	"molle_pos/internal/posapi"
)

func (r *Runner) write(opts Options, result any) error {
	if values, ok := result.(map[string]string); ok {
		result = maskPrefs(values)
	}
	if opts.JSON {
		enc := json.NewEncoder(r.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}
	return writeHuman(r.stdout, result)
}

func writeHuman(w io.Writer, result any) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	switch v := result.(type) {
	case []posapi.Product:
		writeProducts(tw, v)
	case posapi.Product:
		writeProducts(tw, []posapi.Product{v})
	case []posapi.SalesInvoice:
		writeInvoices(tw, v)
	case posapi.SalesInvoice:
		writeInvoices(tw, []posapi.SalesInvoice{v})
		if len(v.Items) > 0 {
			fmt.Fprintln(tw)
			writeItems(tw, v.Items)
		}
	case []posapi.Customer:
		writeCustomers(tw, v)
	case posapi.Statistics:
		writeStatistics(tw, v)
	case posapi.TransactionResponse:
		fmt.Fprintln(tw, "ID\tTYPE\tAMOUNT\tMETHOD\tCREATED")
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.TransactionType, v.Amount.StringFixed(2), v.PaymentMethod, createdAt(v))
	case dashboard.Snapshot:
		fmt.Fprintf(tw, "Dashboard (%s)\n\n", v.LoadedAt.Format("2006-01-02 15:04:05"))
		writeStatistics(tw, v.Statistics)
		fmt.Fprintf(tw, "\nToday's invoices (%d):\n", len(v.TodayInvoices))
		writeInvoices(tw, v.TodayInvoices)
		fmt.Fprintf(tw, "\nLow stock (%d):\n", len(v.LowStock))
		writeProducts(tw, v.LowStock)
	case map[string]string:
		writePrefs(tw, v)
	default:
		return errors.New("unsupported result format")
	}

	return tw.Flush()
}

func writeProducts(w io.Writer, products []posapi.Product) {
	if len(products) == 0 {
		fmt.Fprintln(w, "- (no products)")
		return
	}
	fmt.Fprintln(w, "CODE\tNAME\tNAME (AR)\tBARCODE\tPRICE\tCOST\tON HAND\tACTIVE")
	for _, p := range products {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%t\n",
			p.Code, p.NameEN, p.NameAR, p.Barcode,
			p.SellingPrice.StringFixed(2), p.CostPrice.StringFixed(2), p.QuantityOnHand.String(), p.IsActive)
	}
}

func writeInvoices(w io.Writer, invoices []posapi.SalesInvoice) {
	if len(invoices) == 0 {
		fmt.Fprintln(w, "- (no invoices)")
		return
	}
	fmt.Fprintln(w, "NUMBER\tDATE\tCUSTOMER\tSTATUS\tITEMS\tTOTAL")
	for _, inv := range invoices {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			inv.InvoiceNumber, inv.InvoiceDate, inv.Customer.Name, inv.Status, len(inv.Items), inv.TotalAmount.StringFixed(2))
	}
}

func writeItems(w io.Writer, items []posapi.SalesInvoiceItem) {
	fmt.Fprintln(w, "PRODUCT\tQTY\tUNIT PRICE\tTOTAL")
	for _, item := range items {
		name := item.Product.NameEN
		if name == "" {
			name = item.Product.ID.String()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", name, item.Quantity, item.UnitPrice.StringFixed(2), item.TotalAmount.StringFixed(2))
	}
}

func writeCustomers(w io.Writer, customers []posapi.Customer) {
	if len(customers) == 0 {
		fmt.Fprintln(w, "- (no customers)")
		return
	}
	fmt.Fprintln(w, "ID\tNAME\tPHONE\tEMAIL\tBALANCE")
	for _, c := range customers {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Phone, c.Email, c.Balance.StringFixed(2))
	}
}

func createdAt(txn posapi.TransactionResponse) string {
	ts, err := txn.Created()
	if err != nil {
		return txn.CreatedAt
	}
	return ts.Format("2006-01-02 15:04:05")
}

func writeStatistics(w io.Writer, stats posapi.Statistics) {
	fmt.Fprintln(w, "PERIOD\tINVOICES\tTOTAL")
	fmt.Fprintf(w, "today\t%d\t%s\n", stats.Today.Count, stats.Today.Total.StringFixed(2))
	fmt.Fprintf(w, "month\t%d\t%s\n", stats.Month.Count, stats.Month.Total.StringFixed(2))
}

func writePrefs(w io.Writer, values map[string]string) {
	if len(values) == 0 {
		fmt.Fprintln(w, "- (no preferences)")
		return
	}
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(w, "%s\t%s\n", key, values[key])
	}
}

// maskPrefs returns a copy of values with the auth token masked.
func maskPrefs(values map[string]string) map[string]string {
	masked := make(map[string]string, len(values))
	for key, value := range values {
		if key == config.PrefToken {
			value = maskToken(value)
		}
		masked[key] = value
	}
	return masked
}

func maskToken(token string) string {
	if len(token) <= 4 {
		return "****"
	}
	return "****" + token[len(token)-4:]
}
