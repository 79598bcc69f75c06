package projection

// runWaterfall chains a year's P&L rows into a cash balance starting from
// opening. Negative balances are carried as is.
func runWaterfall(opening, loanRepayment float64, pl []PLData) []CashData {
	rows := make([]CashData, len(pl))
	cash := opening
	for i, p := range pl {
		row := CashData{
			Year:          p.Year,
			Month:         p.Month,
			BeginningCash: cash,
			CashIn:        p.TotalRevenue,
			CashOut:       p.TotalCOGS + p.TotalOpex,
			LoanRepayment: loanRepayment,
		}
		row.NetCashFlow = row.CashIn - row.CashOut - row.LoanRepayment
		row.EndingCash = row.BeginningCash + row.NetCashFlow
		rows[i] = row
		cash = row.EndingCash
	}
	return rows
}
