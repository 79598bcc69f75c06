// Package export renders projection series as CSV and the plan as a
// Markdown or HTML report.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"

	"noro_planning/pkg/core/assumption"
	"noro_planning/pkg/core/projection"
)

// Series names accepted by Write.
const (
	SeriesMonths = "months"
	SeriesPL     = "pl"
	SeriesCash   = "cash"
	SeriesAnnual = "annual"
)

// ErrUnknownSeries is returned by Write for a series it cannot render.
var ErrUnknownSeries = errors.New("unknown export series")

// money formats a currency amount with two decimals.
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// count formats a fractional customer or portal count.
func count(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(4)
}

func itoa(v int) string { return strconv.Itoa(v) }

func tierColumns(prefix string) []string {
	var cols []string
	for _, t := range assumption.AllTiers() {
		cols = append(cols, prefix+"_"+string(t))
	}
	return cols
}

func writeTable(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write csv: %w", err)
	}
	return nil
}

// WriteMonthlyCSV writes one row per month of customer and revenue state.
func WriteMonthlyCSV(w io.Writer, months []projection.MonthlyData) error {
	header := []string{"year", "month"}
	header = append(header, tierColumns("signed")...)
	header = append(header, tierColumns("installed")...)
	header = append(header, tierColumns("active")...)
	header = append(header,
		"total_active_customers", "total_active_portals", "portals_signed", "portals_installed",
		"software_revenue", "usage_revenue", "hardware_upfront", "hardware_on_delivery",
		"hardware_cash_in", "total_revenue",
	)

	rows := make([][]string, 0, len(months))
	for _, m := range months {
		row := []string{itoa(m.Year), itoa(m.Month)}
		for _, t := range assumption.AllTiers() {
			row = append(row, itoa(m.Signed.Get(t)))
		}
		for _, t := range assumption.AllTiers() {
			row = append(row, itoa(m.Installed.Get(t)))
		}
		for _, t := range assumption.AllTiers() {
			row = append(row, count(m.Active.Get(t)))
		}
		row = append(row,
			count(m.TotalActiveCustomers), count(m.TotalActivePortals),
			itoa(m.PortalsSigned), itoa(m.PortalsInstalled),
			money(m.SoftwareRevenue), money(m.UsageRevenue),
			money(m.HardwareUpfront), money(m.HardwareOnDelivery),
			money(m.HardwareCashIn), money(m.TotalRevenue),
		)
		rows = append(rows, row)
	}
	return writeTable(w, header, rows)
}

// WritePLCSV writes one P&L row per month.
func WritePLCSV(w io.Writer, pl []projection.PLData) error {
	header := []string{
		"year", "month", "contracted_arr", "contracted_vrr", "new_hardware", "total_revenue",
		"hardware_cogs", "usage_cogs", "total_cogs", "gross_profit",
		"payroll", "marketing", "r_and_d", "general_admin", "total_opex", "ebitda",
	}
	rows := make([][]string, 0, len(pl))
	for _, p := range pl {
		rows = append(rows, []string{
			itoa(p.Year), itoa(p.Month),
			money(p.ContractedARR), money(p.ContractedVRR), money(p.NewHardware), money(p.TotalRevenue),
			money(p.HardwareCOGS), money(p.UsageCOGS), money(p.TotalCOGS), money(p.GrossProfit),
			money(p.Payroll), money(p.Marketing), money(p.RAndD), money(p.GeneralAdmin),
			money(p.TotalOpex), money(p.EBITDA),
		})
	}
	return writeTable(w, header, rows)
}

// WriteCashCSV writes one cash waterfall row per month.
func WriteCashCSV(w io.Writer, cash []projection.CashData) error {
	header := []string{
		"year", "month", "beginning_cash", "cash_in", "cash_out",
		"loan_repayment", "net_cash_flow", "ending_cash",
	}
	rows := make([][]string, 0, len(cash))
	for _, c := range cash {
		rows = append(rows, []string{
			itoa(c.Year), itoa(c.Month),
			money(c.BeginningCash), money(c.CashIn), money(c.CashOut),
			money(c.LoanRepayment), money(c.NetCashFlow), money(c.EndingCash),
		})
	}
	return writeTable(w, header, rows)
}

// WriteAnnualCSV writes one row per simulated year.
func WriteAnnualCSV(w io.Writer, summaries []projection.AnnualSummary) error {
	header := []string{
		"year", "contracted_arr", "contracted_vrr", "new_hardware", "total_revenue",
		"hardware_cogs", "usage_cogs", "total_cogs", "gross_profit",
		"payroll", "marketing", "r_and_d", "general_admin", "total_opex", "ebitda", "ending_cash",
	}
	rows := make([][]string, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, []string{
			itoa(s.Year),
			money(s.ContractedARR), money(s.ContractedVRR), money(s.NewHardware), money(s.TotalRevenue),
			money(s.HardwareCOGS), money(s.UsageCOGS), money(s.TotalCOGS), money(s.GrossProfit),
			money(s.Payroll), money(s.Marketing), money(s.RAndD), money(s.GeneralAdmin),
			money(s.TotalOpex), money(s.EBITDA), money(s.EndingCash),
		})
	}
	return writeTable(w, header, rows)
}

// Write projects series for unit and writes it as CSV. year is ignored for
// the annual series.
func Write(w io.Writer, e *projection.Engine, series string, unit assumption.Unit, year int) error {
	switch series {
	case SeriesMonths:
		months, err := e.ProjectMonths(year, unit)
		if err != nil {
			return err
		}
		return WriteMonthlyCSV(w, months)
	case SeriesPL:
		pl, err := e.ProjectPL(year, unit)
		if err != nil {
			return err
		}
		return WritePLCSV(w, pl)
	case SeriesCash:
		cash, err := e.ProjectCash(year, unit)
		if err != nil {
			return err
		}
		return WriteCashCSV(w, cash)
	case SeriesAnnual:
		summaries, err := e.SummarizeAnnual(unit)
		if err != nil {
			return err
		}
		return WriteAnnualCSV(w, summaries)
	}
	return fmt.Errorf("%w: %q", ErrUnknownSeries, series)
}
