package symbol

// BinancePair maps a provider crypto ticker onto its Binance spot pair,
// quoting USD in USDT. Other tickers map to "".
func BinancePair(ticker string) string {
	sym := Parse(ticker)
	if sym.Base == "" || sym.Quote != "USD" {
		return ""
	}
	return sym.Base + "USDT"
}
