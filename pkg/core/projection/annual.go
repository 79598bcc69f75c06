package projection

// Aggregate sums twelve P&L rows into one record and takes the closing
// balance of the last cash row as the year's ending cash.
func Aggregate(year int, pl []PLData, cash []CashData) AnnualSummary {
	s := AnnualSummary{Year: year}
	for _, p := range pl {
		s.ContractedARR += p.ContractedARR
		s.ContractedVRR += p.ContractedVRR
		s.NewHardware += p.NewHardware
		s.TotalRevenue += p.TotalRevenue
		s.HardwareCOGS += p.HardwareCOGS
		s.UsageCOGS += p.UsageCOGS
		s.TotalCOGS += p.TotalCOGS
		s.GrossProfit += p.GrossProfit
		s.Payroll += p.Payroll
		s.Marketing += p.Marketing
		s.RAndD += p.RAndD
		s.GeneralAdmin += p.GeneralAdmin
		s.TotalOpex += p.TotalOpex
		s.EBITDA += p.EBITDA
	}
	if n := len(cash); n > 0 {
		s.EndingCash = cash[n-1].EndingCash
	}
	return s
}
