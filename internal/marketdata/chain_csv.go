package marketdata

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"options-income-lab/internal/domain"
)

const dateLayout = "2006-01-02"

// ChainRow is the CSV layout of an option chain fixture.
type ChainRow struct {
	Ticker            string  `csv:"ticker"`
	ContractSymbol    string  `csv:"contract_symbol"`
	OptionType        string  `csv:"option_type"`
	Strike            float64 `csv:"strike"`
	Expiration        string  `csv:"expiration"`
	Bid               float64 `csv:"bid"`
	Ask               float64 `csv:"ask"`
	LastPrice         float64 `csv:"last_price"`
	ImpliedVolatility float64 `csv:"implied_volatility"`
	OpenInterest      int64   `csv:"open_interest"`
	Volume            int64   `csv:"volume"`
	UnderlyingPrice   float64 `csv:"underlying_price"`
}

// ToModel converts a row into a contract record.
func (r *ChainRow) ToModel() (domain.ContractRecord, error) {
	exp, err := time.Parse(dateLayout, strings.TrimSpace(r.Expiration))
	if err != nil {
		return domain.ContractRecord{}, fmt.Errorf("expiration %q: %w", r.Expiration, err)
	}
	typ := domain.OptionType(strings.ToUpper(strings.TrimSpace(r.OptionType)))
	if !typ.IsValid() {
		return domain.ContractRecord{}, fmt.Errorf("option_type %q: invalid", r.OptionType)
	}

	return domain.ContractRecord{
		Ticker:            strings.ToUpper(strings.TrimSpace(r.Ticker)),
		ContractSymbol:    r.ContractSymbol,
		Strike:            r.Strike,
		Expiration:        exp,
		OptionType:        typ,
		Bid:               r.Bid,
		Ask:               r.Ask,
		LastPrice:         r.LastPrice,
		ImpliedVolatility: r.ImpliedVolatility,
		OpenInterest:      r.OpenInterest,
		Volume:            r.Volume,
		UnderlyingPrice:   r.UnderlyingPrice,
	}, nil
}

// ReadChainCSV decodes an option chain. A malformed row fails the whole
// file with its line number.
func ReadChainCSV(r io.Reader) ([]domain.ContractRecord, error) {
	var rows []*ChainRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("decode chain csv: %w", err)
	}

	out := make([]domain.ContractRecord, 0, len(rows))
	for i, row := range rows {
		c, err := row.ToModel()
		if err != nil {
			return nil, fmt.Errorf("chain csv line %d: %w", i+2, err)
		}
		out = append(out, c)
	}
	return out, nil
}
