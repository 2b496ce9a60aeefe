package funcs

import (
	"text/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

var TemplateFuncs = template.FuncMap{
	"formatMoney": FormatMoney,
	"formatTime":  FormatTime,
}

// FormatMoney renders a decimal amount with thousands separators and two
// decimal places, e.g. 1,250,000.00.
func FormatMoney(amount decimal.Decimal) string {
	f, _ := amount.Round(2).Float64()
	return printer.Sprintf("%.2f", f)
}

func FormatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05 MST")
}
