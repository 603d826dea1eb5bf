package cleaning

import "strings"

// Canonical column candidates, in resolution priority order. Providers name
// the same field differently (and in different languages); the first match
// wins. Timestamp and price are mandatory, everything else is recoverable.
var (
	timeColumns   = []string{"成交时间", "时间", "time", "datetime", "timestamp"}
	priceColumns  = []string{"成交价格", "价格", "最新价", "price"}
	volumeColumns = []string{"成交量", "vol", "volume"}
	amountColumns = []string{"成交额(元)", "成交额", "成交金额", "amount", "turnover"}
	natureColumns = []string{"性质", "买卖盘性质", "type", "nature", "side"}
	deltaColumns  = []string{"价格变动", "price_change", "price_delta"}
)

// columnSet holds resolved column indices; -1 means not present.
type columnSet struct {
	time   int
	price  int
	volume int
	amount int
	nature int
	delta  int
}

// resolveColumns maps the batch's provider-specific header onto canonical
// fields once, at normalization entry.
func resolveColumns(header []string) columnSet {
	return columnSet{
		time:   resolveColumn(header, timeColumns),
		price:  resolveColumn(header, priceColumns),
		volume: resolveColumn(header, volumeColumns),
		amount: resolveColumn(header, amountColumns),
		nature: resolveColumn(header, natureColumns),
		delta:  resolveColumn(header, deltaColumns),
	}
}

// resolveColumn returns the index of the first header entry matching any
// candidate name, or -1. Matching is case-insensitive and ignores
// surrounding whitespace.
func resolveColumn(header []string, candidates []string) int {
	for _, want := range candidates {
		for i, have := range header {
			if strings.EqualFold(strings.TrimSpace(have), want) {
				return i
			}
		}
	}
	return -1
}
