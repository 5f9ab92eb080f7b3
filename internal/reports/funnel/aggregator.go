// Package funnel groups leads or jobs by current status into dense, ordered
// buckets for funnel reports and pipeline boards.
package funnel

import (
	"math"

	"roofing_backend/internal/lifecycle"
)

// Record is one entity's status and monetary value.
type Record struct {
	Status     string
	ValueCents int64
}

// Bucket is one stage of the pipeline.
type Bucket struct {
	Status     string `json:"status"`
	Label      string `json:"label"`
	Count      int    `json:"count"`
	ValueCents int64  `json:"valueCents"`
}

// Summary holds totals across all records. TotalRecords includes records
// whose status the table does not recognise; Unclassified counts those.
type Summary struct {
	TotalRecords      int     `json:"totalRecords"`
	SuccessCount      int     `json:"successCount"`
	Unclassified      int     `json:"unclassified"`
	MatchedValueCents int64   `json:"matchedValueCents"`
	ConversionRate    float64 `json:"conversionRate"`
}

// Report is a full funnel: one bucket per status in canonical order.
type Report struct {
	Buckets []Bucket `json:"buckets"`
	Summary Summary  `json:"summary"`
}

// Aggregate buckets records by status. Buckets are dense: every status of the
// table is present even with a zero count. Unknown statuses are counted in
// the totals and excluded from every bucket.
func Aggregate(table *lifecycle.Table, records []Record) Report {
	statuses := table.Statuses()
	buckets := make([]Bucket, len(statuses))
	index := make(map[lifecycle.Status]int, len(statuses))
	for i, s := range statuses {
		buckets[i] = Bucket{Status: string(s), Label: table.Label(s)}
		index[s] = i
	}

	summary := Summary{TotalRecords: len(records)}
	for _, rec := range records {
		i, ok := index[lifecycle.Status(rec.Status)]
		if !ok {
			summary.Unclassified++
			continue
		}
		buckets[i].Count++
		if rec.ValueCents > 0 {
			buckets[i].ValueCents += rec.ValueCents
		}
	}

	if i, ok := index[table.Success()]; ok {
		summary.SuccessCount = buckets[i].Count
		summary.MatchedValueCents = buckets[i].ValueCents
	}
	summary.ConversionRate = ConversionRate(summary.SuccessCount, summary.TotalRecords)

	return Report{Buckets: buckets, Summary: summary}
}

// ConversionRate returns success/total as a percentage rounded half-up to one
// decimal place, or 0 when total is 0.
func ConversionRate(success, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Floor(float64(success)*1000/float64(total)+0.5) / 10
}
