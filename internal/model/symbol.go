package model

// SymbolRecord is one row of the exchange symbol directory.
type SymbolRecord struct {
	Symbol          string
	SecurityName    string
	MarketCategory  string
	TestIssue       string
	FinancialStatus string
	ETF             string
}

// Eligible reports whether the listing is a regular, non-test, non-ETF
// Global Select Market issue in good standing.
func (r SymbolRecord) Eligible() bool {
	return r.MarketCategory == "Q" &&
		r.TestIssue == "N" &&
		r.FinancialStatus == "N" &&
		r.ETF == "N"
}
