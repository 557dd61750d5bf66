package reporting

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"options-income-lab/internal/domain"
	"options-income-lab/internal/idhash"
)

// RenderTable writes up to limit ranked opportunities as a console table.
// A non-positive limit renders every row.
func RenderTable(w io.Writer, st domain.StrategyType, opps []*domain.Opportunity, limit int) {
	p := message.NewPrinter(language.English)

	fmt.Fprintf(w, "%s: %d opportunities\n", st, len(opps))
	if len(opps) == 0 {
		return
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Ticker", "Strike", "Exp", "DTE", "Premium", "Annual", "Enh Prob", "Contracts", "Capital", "ID"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetAutoFormatHeaders(false)

	for i, o := range opps {
		if limit > 0 && i == limit {
			break
		}
		table.Append([]string{
			p.Sprintf("%d", o.Rank),
			o.Contract.Ticker,
			p.Sprintf("%.2f", o.Contract.Strike),
			o.Contract.Expiration.Format("2006-01-02"),
			p.Sprintf("%d", o.Greeks.DaysToExpiration),
			p.Sprintf("$%.2f", o.Greeks.Premium),
			p.Sprintf("%.1f%%", o.AnnualReturn),
			p.Sprintf("%.1f%%", o.EnhancedProbability),
			p.Sprintf("%d", o.MaxContracts),
			p.Sprintf("$%.0f", o.TotalCapitalRequired),
			idhash.ShortID(o.OpportunityID),
		})
	}

	table.Render()
}
