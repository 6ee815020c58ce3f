package symbol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, Symbol{Base: "BTC", Quote: "USD"}, Parse(" btc-usd "))
	assert.Equal(t, Symbol{Base: "ETH", Quote: "EUR"}, Parse("ETH-EUR"))
	assert.Equal(t, Symbol{}, Parse("AAPL"))
	assert.Equal(t, Symbol{}, Parse("ISDW.L"))
	assert.Equal(t, Symbol{}, Parse("BRK-B"))
	assert.Equal(t, Symbol{}, Parse("-USD"))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"AAA", "BBB", "CCC"}, SplitList("aaa, bbb,,CCC"))
	assert.Equal(t, []string{"AAPL"}, SplitList("aapl, AAPL ,Aapl"))
	assert.Equal(t, []string{"MSFT", "NVDA", "SPUS"}, SplitList("msft nvda\tspus"))
	assert.Empty(t, SplitList(" , ,"))
}

func TestBinancePair(t *testing.T) {
	assert.Equal(t, "BTCUSDT", BinancePair("BTC-USD"))
	assert.Equal(t, "SOLUSDT", BinancePair(" sol-usd "))
	assert.Equal(t, "", BinancePair("BTC-EUR"))
	assert.Equal(t, "", BinancePair("AAPL"))
}
