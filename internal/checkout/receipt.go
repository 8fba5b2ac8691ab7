package checkout

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/posflow/internal/domain"
)

const (
	DefaultStoreName      = "POS System"
	DefaultCurrencyPrefix = "Rs."
)

// ReceiptFormat controls how receipts are branded and localized.
type ReceiptFormat struct {
	StoreName      string
	CurrencyPrefix string
	Location       *time.Location
}

func (f ReceiptFormat) withDefaults() ReceiptFormat {
	if f.StoreName == "" {
		f.StoreName = DefaultStoreName
	}
	if f.CurrencyPrefix == "" {
		f.CurrencyPrefix = DefaultCurrencyPrefix
	}
	if f.Location == nil {
		f.Location = time.UTC
	}
	return f
}

type ReceiptLine struct {
	Name     string
	Quantity int
	Amount   string
}

type Receipt struct {
	StoreName string
	OrderID   string
	IssuedAt  string
	Lines     []ReceiptLine
	Total     string
}

func NewReceipt(order domain.Order, format ReceiptFormat) Receipt {
	format = format.withDefaults()

	r := Receipt{
		StoreName: format.StoreName,
		OrderID:   order.ID,
		IssuedAt:  order.CreatedAt.In(format.Location).Format("2006-01-02 15:04:05"),
		Lines:     make([]ReceiptLine, 0, len(order.Items)),
		Total:     formatAmount(format.CurrencyPrefix, order.Total),
	}
	for _, item := range order.Items {
		r.Lines = append(r.Lines, ReceiptLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Amount:   formatAmount(format.CurrencyPrefix, item.LineTotal()),
		})
	}
	return r
}

func formatAmount(prefix string, amount decimal.Decimal) string {
	return prefix + " " + amount.StringFixed(2)
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Receipt {{.OrderID}}</title>
<style>
body { font-family: monospace; padding: 20px; max-width: 300px; margin: 0 auto; }
.header { text-align: center; margin-bottom: 20px; }
.item { display: flex; justify-content: space-between; margin: 5px 0; }
.total { border-top: 1px dashed #000; margin-top: 10px; padding-top: 10px; font-weight: bold; }
.footer { text-align: center; margin-top: 20px; font-size: 0.8em; }
@media print {
  body { width: 80mm; padding: 0; }
  @page { size: 80mm auto; margin: 0; }
}
</style>
</head>
<body>
<div class="receipt">
<div class="header">
<h2>{{.StoreName}}</h2>
<p>Receipt</p>
<p>Order ID: {{.OrderID}}</p>
<p>{{.IssuedAt}}</p>
</div>
<div class="items">
{{- range .Lines}}
<div class="item"><span>{{.Name}} x{{.Quantity}}</span><span>{{.Amount}}</span></div>
{{- end}}
</div>
<div class="total"><div class="item"><span>Total:</span><span>{{.Total}}</span></div></div>
<div class="footer"><p>Thank you for your purchase!</p><p>Please come again</p></div>
</div>
</body>
</html>
`))

// HTML renders a self-contained printable document sized for 80 mm paper.
func (r Receipt) HTML() (string, error) {
	var buf bytes.Buffer
	if err := receiptTemplate.Execute(&buf, r); err != nil {
		return "", fmt.Errorf("render receipt %s: %w", r.OrderID, err)
	}
	return buf.String(), nil
}

// Text renders the receipt for a line printer.
func (r Receipt) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nReceipt\nOrder ID: %s\n%s\n", r.StoreName, r.OrderID, r.IssuedAt)
	b.WriteString(strings.Repeat("-", 32) + "\n")
	for _, l := range r.Lines {
		fmt.Fprintf(&b, "%s x%d  %s\n", l.Name, l.Quantity, l.Amount)
	}
	b.WriteString(strings.Repeat("-", 32) + "\n")
	fmt.Fprintf(&b, "Total: %s\n", r.Total)
	b.WriteString("Thank you for your purchase!\n")
	return b.String()
}
