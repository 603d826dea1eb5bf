package idhash

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// TickID computes a deterministic identifier for one tick within a batch.
// Sequence disambiguates ticks sharing the same timestamp and price.
func TickID(symbol string, ts time.Time, price float64, seq int) string {
	data := fmt.Sprintf("%s|%d|%.6f|%d", symbol, ts.UnixMilli(), price, seq)
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
