package yahoo

import "time"

// DailyQuote is the closing price of one market day
type DailyQuote struct {
	Symbol string    `json:"symbol"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// QuoteName holds the display names reported for a symbol. Either field may
// be empty; callers pick the first non-empty one.
type QuoteName struct {
	LongName  string `json:"long_name"`
	ShortName string `json:"short_name"`
}

// Best returns the long name, falling back to the short name.
func (n QuoteName) Best() string {
	if n.LongName != "" {
		return n.LongName
	}
	return n.ShortName
}
