package marketdata

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"options-income-lab/internal/domain"
)

type snapshotFile struct {
	Snapshots []snapshotDoc `yaml:"snapshots"`
}

type snapshotDoc struct {
	Ticker       string          `yaml:"ticker"`
	CurrentPrice float64         `yaml:"current_price"`
	High52Week   *float64        `yaml:"high_52_week"`
	Low52Week    *float64        `yaml:"low_52_week"`
	History      []barDoc        `yaml:"history"`
	Fundamentals fundamentalsDoc `yaml:"fundamentals"`
	Analyst      analystDoc      `yaml:"analyst"`
	Events       eventsDoc       `yaml:"events"`
}

type barDoc struct {
	Date   string  `yaml:"date"`
	Close  float64 `yaml:"close"`
	Volume float64 `yaml:"volume"`
}

type fundamentalsDoc struct {
	TrailingPE     *float64 `yaml:"trailing_pe"`
	ForwardPE      *float64 `yaml:"forward_pe"`
	ProfitMargins  *float64 `yaml:"profit_margins"`
	ReturnOnEquity *float64 `yaml:"return_on_equity"`
	RevenueGrowth  *float64 `yaml:"revenue_growth"`
	EarningsGrowth *float64 `yaml:"earnings_growth"`
	DebtToEquity   *float64 `yaml:"debt_to_equity"`
	Beta           *float64 `yaml:"beta"`
	DividendYield  *float64 `yaml:"dividend_yield"`
	MarketCap      *float64 `yaml:"market_cap"`
}

type analystDoc struct {
	RecommendationMean *float64 `yaml:"recommendation_mean"`
	TargetMeanPrice    *float64 `yaml:"target_mean_price"`
	NumberOfAnalysts   *int     `yaml:"number_of_analysts"`
}

type eventsDoc struct {
	NextEarnings   string `yaml:"next_earnings"`
	NextExDividend string `yaml:"next_ex_dividend"`
}

// ReadSnapshotsYAML decodes stock snapshots keyed by upper-cased ticker.
// History is sorted by date ascending.
func ReadSnapshotsYAML(r io.Reader) (map[string]*domain.StockSnapshot, error) {
	var file snapshotFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode snapshots yaml: %w", err)
	}

	out := make(map[string]*domain.StockSnapshot, len(file.Snapshots))
	for _, doc := range file.Snapshots {
		snap, err := doc.toModel()
		if err != nil {
			return nil, fmt.Errorf("snapshot %s: %w", doc.Ticker, err)
		}
		if _, dup := out[snap.Ticker]; dup {
			return nil, fmt.Errorf("snapshot %s: duplicate ticker", snap.Ticker)
		}
		out[snap.Ticker] = snap
	}
	return out, nil
}

func (d *snapshotDoc) toModel() (*domain.StockSnapshot, error) {
	snap := &domain.StockSnapshot{
		Ticker:       strings.ToUpper(strings.TrimSpace(d.Ticker)),
		CurrentPrice: d.CurrentPrice,
		High52Week:   d.High52Week,
		Low52Week:    d.Low52Week,
		Fundamentals: domain.Fundamentals{
			TrailingPE:     d.Fundamentals.TrailingPE,
			ForwardPE:      d.Fundamentals.ForwardPE,
			ProfitMargins:  d.Fundamentals.ProfitMargins,
			ReturnOnEquity: d.Fundamentals.ReturnOnEquity,
			RevenueGrowth:  d.Fundamentals.RevenueGrowth,
			EarningsGrowth: d.Fundamentals.EarningsGrowth,
			DebtToEquity:   d.Fundamentals.DebtToEquity,
			Beta:           d.Fundamentals.Beta,
			DividendYield:  d.Fundamentals.DividendYield,
			MarketCap:      d.Fundamentals.MarketCap,
		},
		Analyst: domain.AnalystConsensus{
			RecommendationMean: d.Analyst.RecommendationMean,
			TargetMeanPrice:    d.Analyst.TargetMeanPrice,
			NumberOfAnalysts:   d.Analyst.NumberOfAnalysts,
		},
	}
	if snap.Ticker == "" {
		return nil, fmt.Errorf("missing ticker")
	}

	for _, b := range d.History {
		date, err := time.Parse(dateLayout, b.Date)
		if err != nil {
			return nil, fmt.Errorf("history date %q: %w", b.Date, err)
		}
		snap.History = append(snap.History, domain.PriceBar{Date: date, Close: b.Close, Volume: b.Volume})
	}
	sort.SliceStable(snap.History, func(i, j int) bool {
		return snap.History[i].Date.Before(snap.History[j].Date)
	})

	var err error
	if snap.Events.NextEarnings, err = parseOptionalDate(d.Events.NextEarnings); err != nil {
		return nil, fmt.Errorf("next_earnings: %w", err)
	}
	if snap.Events.NextExDividend, err = parseOptionalDate(d.Events.NextExDividend); err != nil {
		return nil, fmt.Errorf("next_ex_dividend: %w", err)
	}
	return snap, nil
}

func parseOptionalDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
