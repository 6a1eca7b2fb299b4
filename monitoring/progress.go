package monitoring

import (
	"sync"
	"time"
)

// A ProgressBar tracks how many accesses of a trace have been replayed.
type ProgressBar struct {
	sync.Mutex `json:"-"`
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
}

// IncrementFinished add a certain amount to finished element.
func (b *ProgressBar) IncrementFinished(amount uint64) {
	b.Lock()
	defer b.Unlock()

	b.Finished += amount
}

func (b *ProgressBar) snapshot() ProgressBar {
	b.Lock()
	defer b.Unlock()

	return ProgressBar{
		ID:        b.ID,
		Name:      b.Name,
		StartTime: b.StartTime,
		Total:     b.Total,
		Finished:  b.Finished,
	}
}
