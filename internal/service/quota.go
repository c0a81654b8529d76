package service

// QuotaBudget tracks YouTube API quota consumption for a single run.
// Every run gets a fresh budget and threads it through the fetch layer
// explicitly; there is no shared global counter. A run is single-writer,
// so no locking is needed.
type QuotaBudget struct {
	limit int
	used  int
}

func NewQuotaBudget(limit int) *QuotaBudget {
	return &QuotaBudget{limit: limit}
}

// Reserve debits cost units and reports whether the budget covered them.
// A failed reserve leaves the budget untouched so the caller can record
// exactly how much was spent before the run stopped.
func (b *QuotaBudget) Reserve(cost int) bool {
	if b.used+cost > b.limit {
		return false
	}
	b.used += cost
	return true
}

func (b *QuotaBudget) Used() int { return b.used }

func (b *QuotaBudget) Remaining() int { return b.limit - b.used }
