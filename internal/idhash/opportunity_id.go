package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/mr-tron/base58"
)

// shortIDBytes is the hash prefix length encoded by ShortID.
const shortIDBytes = 8

// ComputeOpportunityID computes a deterministic opportunity_id using SHA256.
// Formula: SHA256(strategy|ticker|option_type|expiration|strike)
// Expiration is formatted YYYY-MM-DD, strike with the shortest exact decimal.
// Returns hex-encoded hash (64 characters).
func ComputeOpportunityID(
	strategy string,
	ticker string,
	optionType string,
	expiration time.Time,
	strike float64,
) string {
	data := fmt.Sprintf("%s|%s|%s|%s|%s",
		strategy,
		ticker,
		optionType,
		expiration.UTC().Format("2006-01-02"),
		strconv.FormatFloat(strike, 'f', -1, 64),
	)

	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}

// ShortID returns a base58 rendering of the first 8 bytes of a hex id,
// for console display. Returns the input unchanged if it is not valid hex.
func ShortID(id string) string {
	raw, err := hex.DecodeString(id)
	if err != nil || len(raw) < shortIDBytes {
		return id
	}
	return base58.Encode(raw[:shortIDBytes])
}

// ComputeConfigHash returns the first 16 hex characters of SHA256(data).
func ComputeConfigHash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])[:16]
}
