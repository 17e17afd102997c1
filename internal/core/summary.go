package core

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category Category `json:"category"`
	Amount   Money    `json:"amount"`
	Count    int      `json:"count"`
}

// ExpenseSummary totals every expense matching a filter, ignoring paging.
type ExpenseSummary struct {
	Total      Money            `json:"total"`
	Count      int              `json:"count"`
	ByCategory []CategoryAmount `json:"byCategory"`
}
