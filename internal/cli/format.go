package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/erp/ledger/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const dateLayout = "2006-01-02"

// formatter renders amounts and labels for one language
type formatter struct {
	printer *message.Printer
	title   cases.Caser
}

func newFormatter(lang string) (*formatter, error) {
	tag, err := language.Parse(lang)
	if err != nil {
		return nil, fmt.Errorf("invalid --lang %q: %w", lang, err)
	}
	return &formatter{
		printer: message.NewPrinter(tag),
		title:   cases.Title(tag),
	}, nil
}

// Amount formats a money value with locale digit grouping and two decimals.
// The value is rounded before conversion so only display precision is involved.
func (f *formatter) Amount(d decimal.Decimal) string {
	rounded := valueobject.RoundMoney(d)
	return f.printer.Sprint(number.Decimal(rounded.InexactFloat64(), number.Scale(2)))
}

// Label turns an enum such as ASSET or SALES_INVOICE into "Asset" or "Sales Invoice"
func (f *formatter) Label(s string) string {
	return f.title.String(strings.ReplaceAll(strings.ToLower(s), "_", " "))
}

func currencyHeader(column, currency string) string {
	if currency == "" {
		return column
	}
	return column + " (" + currency + ")"
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid date %q, use YYYY-MM-DD", s)
	}
	return &t, nil
}
