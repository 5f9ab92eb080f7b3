// Package aging groups receivables by days overdue.
package aging

import "time"

// Bucket keys in report order.
const (
	KeyCurrent = "current"
	Key1To30   = "1_30"
	Key31To60  = "31_60"
	Key61To90  = "61_90"
	Key90Plus  = "90_plus"
)

var buckets = []struct {
	key   string
	label string
}{
	{KeyCurrent, "Current"},
	{Key1To30, "1-30 days"},
	{Key31To60, "31-60 days"},
	{Key61To90, "61-90 days"},
	{Key90Plus, "90+ days"},
}

const day = 24 * time.Hour

// Record is one receivable. A nil DueDate is never overdue.
type Record struct {
	DueDate     *time.Time
	AmountCents int64
}

// Bucket is one day range of the aging report.
type Bucket struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	Count       int    `json:"count"`
	AmountCents int64  `json:"amountCents"`
}

// Keys returns the bucket keys in report order.
func Keys() []string {
	out := make([]string, len(buckets))
	for i, b := range buckets {
		out[i] = b.key
	}
	return out
}

// DaysOverdue returns whole days between due and asOf, never negative.
func DaysOverdue(due *time.Time, asOf time.Time) int {
	if due == nil {
		return 0
	}
	elapsed := asOf.Sub(*due)
	if elapsed <= 0 {
		return 0
	}
	return int(elapsed / day)
}

// Classify maps days overdue onto a bucket key.
func Classify(days int) string {
	switch {
	case days <= 0:
		return KeyCurrent
	case days <= 30:
		return Key1To30
	case days <= 60:
		return Key31To60
	case days <= 90:
		return Key61To90
	default:
		return Key90Plus
	}
}

// BucketByAge classifies every record into exactly one bucket. All five
// buckets are returned in order, including empty ones.
func BucketByAge(records []Record, asOf time.Time) []Bucket {
	out := make([]Bucket, len(buckets))
	index := make(map[string]int, len(buckets))
	for i, b := range buckets {
		out[i] = Bucket{Key: b.key, Label: b.label}
		index[b.key] = i
	}

	for _, rec := range records {
		i := index[Classify(DaysOverdue(rec.DueDate, asOf))]
		out[i].Count++
		if rec.AmountCents > 0 {
			out[i].AmountCents += rec.AmountCents
		}
	}
	return out
}

// Total sums counts and amounts across buckets.
func Total(in []Bucket) (count int, amountCents int64) {
	for _, b := range in {
		count += b.Count
		amountCents += b.AmountCents
	}
	return count, amountCents
}
