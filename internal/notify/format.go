package notify

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// FormatAmount: 通知文に入れる金額表記（例: "₹ 3.00"）。通貨コードが不正なら "XXX 3.00"
func FormatAmount(code string, amount decimal.Decimal) string {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return code + " " + amount.StringFixed(2)
	}
	f, _ := amount.Round(2).Float64()
	return printer.Sprint(currency.Symbol(unit.Amount(f)))
}
