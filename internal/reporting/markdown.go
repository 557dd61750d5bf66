package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/pipeline"
)

// topInReport is the number of opportunities listed per strategy in Markdown.
const topInReport = 10

// RenderMarkdown renders report as Markdown string.
func RenderMarkdown(r *Report) string {
	var sb strings.Builder

	// Header
	sb.WriteString("# Options Scan Report\n\n")
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", r.GeneratedAt.Format(time.RFC3339)))
	sb.WriteString("| Field | Value |\n")
	sb.WriteString("|-------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Run ID | %s |\n", r.RunID))
	sb.WriteString(fmt.Sprintf("| As Of | %s |\n", r.AsOf.Format(time.RFC3339)))
	sb.WriteString(fmt.Sprintf("| Market Session | %s |\n", r.MarketSession))
	sb.WriteString(fmt.Sprintf("| Config Hash | %s |\n", r.ConfigHash))
	sb.WriteString("\n")

	// Summary across strategies
	sb.WriteString("## Summary\n\n")
	if len(r.Sections) > 0 {
		sb.WriteString("| Strategy | Count | Tickers | Mean Annual% | Median Annual% | Stddev | Mean Prob% | Contracts | Capital | Premium |\n")
		sb.WriteString("|----------|-------|---------|--------------|----------------|--------|------------|-----------|---------|---------|\n")
		for _, s := range r.Sections {
			m := s.Summary
			sb.WriteString(fmt.Sprintf("| %s | %d | %d | %.2f | %.2f | %.2f | %.2f | %d | %.2f | %.2f |\n",
				s.Strategy, m.Count, m.Tickers,
				m.AnnualReturnMean, m.AnnualReturnMedian, m.AnnualReturnStddev, m.ProbabilityMean,
				m.Contracts, m.TotalCapitalRequired, m.TotalPremium))
		}
	} else {
		sb.WriteString("No strategies scanned.\n")
	}
	sb.WriteString("\n")

	for _, s := range r.Sections {
		sb.WriteString(fmt.Sprintf("## %s\n\n", s.Strategy))
		sb.WriteString(renderOpportunities(s.Opportunities))
		if s.Diagnostics != nil {
			sb.WriteString(RenderDiagnostics(s.Diagnostics))
		}
	}

	return sb.String()
}

// renderOpportunities renders the top ranked opportunities of one strategy.
func renderOpportunities(opps []*domain.Opportunity) string {
	var sb strings.Builder

	sb.WriteString("### Top Opportunities\n\n")
	if len(opps) == 0 {
		sb.WriteString("No opportunities passed all filters.\n\n")
		return sb.String()
	}

	sb.WriteString("| Rank | Ticker | Type | Strike | Expiration | DTE | Premium | Source | Annual% | Prob% | Enh% | Contracts |\n")
	sb.WriteString("|------|--------|------|--------|------------|-----|---------|--------|---------|-------|------|-----------|\n")
	for i, o := range opps {
		if i == topInReport {
			break
		}
		sb.WriteString(fmt.Sprintf("| %d | %s | %s | %.2f | %s | %d | %.2f | %s | %.2f | %.2f | %.2f | %d |\n",
			o.Rank, o.Contract.Ticker, o.Contract.OptionType, o.Contract.Strike,
			o.Contract.Expiration.Format("2006-01-02"), o.Greeks.DaysToExpiration,
			o.Greeks.Premium, o.Greeks.PriceSource, o.AnnualReturn,
			o.Greeks.ProbabilityOTM, o.EnhancedProbability, o.MaxContracts))
	}
	if len(opps) > topInReport {
		sb.WriteString(fmt.Sprintf("\n%d more in CSV.\n", len(opps)-topInReport))
	}
	sb.WriteString("\n")

	return sb.String()
}

// RenderDiagnostics renders per-stage counts and data quality for one strategy.
func RenderDiagnostics(d *pipeline.Diagnostics) string {
	var sb strings.Builder

	// Stage funnel
	sb.WriteString("### Pipeline Stages\n\n")
	sb.WriteString("| Stage | In | Out | Excluded |\n")
	sb.WriteString("|-------|----|-----|----------|\n")
	for i := range d.Stages {
		c := &d.Stages[i]
		reasons := c.Reasons()
		parts := make([]string, len(reasons))
		for j, r := range reasons {
			parts[j] = fmt.Sprintf("%s=%d", r, c.Excluded[r])
		}
		excluded := strings.Join(parts, ", ")
		if excluded == "" {
			excluded = "-"
		}
		sb.WriteString(fmt.Sprintf("| %s | %d | %d | %s |\n", c.Stage, c.In, c.Out, excluded))
	}
	sb.WriteString("\n")

	// Data quality
	sb.WriteString("### Data Quality\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	for _, src := range sortedSources(d.PriceSources) {
		sb.WriteString(fmt.Sprintf("| Price Source %s | %d |\n", src, d.PriceSources[src]))
	}
	sb.WriteString(fmt.Sprintf("| Stale Quotes | %d |\n", d.StaleQuotes()))
	sb.WriteString(fmt.Sprintf("| IV Substituted | %d |\n", d.IVSubstituted))
	sb.WriteString(fmt.Sprintf("| Degenerate Pricing | %d |\n", d.Degenerate))
	sb.WriteString(fmt.Sprintf("| Low Confidence | %d |\n", d.LowConfidence))
	sb.WriteString("\n")

	if len(d.MissingSnapshots) > 0 {
		sb.WriteString(fmt.Sprintf("Scored neutral without snapshot: %s\n\n", strings.Join(d.MissingSnapshots, ", ")))
	}

	// Capital
	sb.WriteString("### Capital\n\n")
	sb.WriteString("| Metric | Value |\n")
	sb.WriteString("|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Deployable Cash | %.2f |\n", d.DeployableCash))
	sb.WriteString(fmt.Sprintf("| Position Budget | %.2f |\n", d.PositionBudget))
	sb.WriteString("\n")

	return sb.String()
}

func sortedSources(m map[domain.PriceSource]int) []domain.PriceSource {
	out := make([]domain.PriceSource, 0, len(m))
	for s := range m {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
