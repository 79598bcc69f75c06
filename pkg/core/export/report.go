package export

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/projection"
	"noro_planning/pkg/core/validate"
)

// MarkdownReport renders the annual summary and every year's monthly P&L and
// closing cash for unit as GitHub-flavoured Markdown tables.
func MarkdownReport(e *projection.Engine, a *assumption.Assumptions, unit assumption.Unit) (string, error) {
	summaries, err := e.SummarizeAnnual(unit)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# NORO plan: %s unit\n\n", unit)
	fmt.Fprintf(&b, "Currency %s, starting %s, monthly churn %s%%, install lag %d months.\n\n",
		a.Currency, a.StartMonth, trimPct(a.MonthlyChurnRatePct), a.InstallLagMonths)

	b.WriteString("## Annual summary\n\n")
	b.WriteString("| Year | Revenue | Revenue YoY | COGS | Gross profit | Opex | EBITDA | Ending cash |\n")
	b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|\n")
	growth := validate.RevenueGrowth(summaries)
	for i, s := range summaries {
		yoy := "-"
		if i > 0 {
			yoy = pct(growth[i-1].ChangePct)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %s | %s | %s | %s | %s |\n",
			s.Year, money(s.TotalRevenue), yoy, money(s.TotalCOGS), money(s.GrossProfit),
			money(s.TotalOpex), money(s.EBITDA), money(s.EndingCash))
	}
	if cagr, err := validate.RevenueCAGR(summaries); err == nil {
		fmt.Fprintf(&b, "\nRevenue CAGR %d-%d: %s.\n", cagr.StartYear, cagr.EndYear, pct(cagr.CAGR))
	}

	var firstShortfall *projection.CashData
	for _, year := range e.Years() {
		p, err := e.ProjectYear(year, unit)
		if err != nil {
			return "", err
		}
		if firstShortfall == nil {
			firstShortfall = validate.FirstNegativeCash(p.Cash)
		}
		fmt.Fprintf(&b, "\n## %d\n\n", year)
		b.WriteString("| Month | Active customers | ARR | VRR | Hardware | COGS | Opex | EBITDA | Ending cash |\n")
		b.WriteString("|---|---:|---:|---:|---:|---:|---:|---:|---:|\n")
		for i, pl := range p.PL {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s | %s | %s | %s |\n",
				time.Month(pl.Month).String()[:3], count(p.Months[i].TotalActiveCustomers),
				money(pl.ContractedARR), money(pl.ContractedVRR), money(pl.NewHardware),
				money(pl.TotalCOGS), money(pl.TotalOpex), money(pl.EBITDA), money(p.Cash[i].EndingCash))
		}
	}
	if firstShortfall == nil {
		b.WriteString("\nCash stays positive over the whole horizon.\n")
	} else {
		fmt.Fprintf(&b, "\nCash first turns negative in %s %d (%s).\n",
			time.Month(firstShortfall.Month), firstShortfall.Year, money(firstShortfall.EndingCash))
	}
	return b.String(), nil
}

// HTMLReport renders MarkdownReport as a standalone HTML page.
func HTMLReport(e *projection.Engine, a *assumption.Assumptions, unit assumption.Unit) ([]byte, error) {
	md, err := MarkdownReport(e, a, unit)
	if err != nil {
		return nil, err
	}

	gm := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := gm.Convert([]byte(md), &body); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	var out bytes.Buffer
	fmt.Fprintf(&out, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>%s</title>\n</head>\n<body>\n",
		html.EscapeString(reportTitle(md)))
	out.Write(body.Bytes())
	out.WriteString("</body>\n</html>\n")
	return out.Bytes(), nil
}

// reportTitle returns the text of the first heading in md.
func reportTitle(md string) string {
	src := []byte(md)
	doc := goldmark.DefaultParser().Parse(text.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if n.Kind() == ast.KindHeading {
			return string(n.Lines().Value(src))
		}
	}
	return "NORO plan"
}

func pct(v float64) string {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(1) + "%"
}

func trimPct(v float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.4f", v), "0"), ".")
}
