// Package idhash derives deterministic identifiers for tick batches and
// individual ticks.
package idhash

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/mr-tron/base58"
)

// BatchID computes a deterministic identifier for one (symbol, trading day)
// batch. Formula: base58(SHA256(symbol|YYYY-MM-DD)), truncated to 16 bytes
// of digest before encoding.
func BatchID(symbol string, day time.Time) string {
	data := fmt.Sprintf("%s|%s", symbol, day.Format("2006-01-02"))
	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:16])
}
