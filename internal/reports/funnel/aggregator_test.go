package funnel

import (
	"testing"

	"roofing_backend/internal/lifecycle"
)

func TestAggregateEmptyIsDense(t *testing.T) {
	table := lifecycle.LeadTable()
	report := Aggregate(table, nil)

	if len(report.Buckets) != len(table.Statuses()) {
		t.Fatalf("expected %d buckets, got %d", len(table.Statuses()), len(report.Buckets))
	}
	for _, b := range report.Buckets {
		if b.Count != 0 || b.ValueCents != 0 {
			t.Fatalf("expected empty bucket, got %+v", b)
		}
	}
	if report.Summary.ConversionRate != 0 {
		t.Fatalf("expected conversion rate 0, got %v", report.Summary.ConversionRate)
	}
}

func TestAggregateKeepsCanonicalOrder(t *testing.T) {
	table := lifecycle.JobTable()
	records := []Record{
		{Status: "closed"},
		{Status: "in_progress"},
		{Status: "pending_start"},
		{Status: "closed"},
	}
	report := Aggregate(table, records)

	for i, s := range table.Statuses() {
		if report.Buckets[i].Status != string(s) {
			t.Fatalf("bucket %d: expected %q, got %q", i, s, report.Buckets[i].Status)
		}
	}
	if report.Buckets[len(report.Buckets)-1].Count != 2 {
		t.Fatalf("expected 2 closed jobs, got %d", report.Buckets[len(report.Buckets)-1].Count)
	}
}

func TestAggregateUnknownStatusesCountOnlyInTotals(t *testing.T) {
	report := Aggregate(lifecycle.LeadTable(), []Record{
		{Status: "won", ValueCents: 1_200_000},
		{Status: "Contacted", ValueCents: 500},
		{Status: "", ValueCents: 700},
	})

	if report.Summary.TotalRecords != 3 {
		t.Fatalf("expected 3 total records, got %d", report.Summary.TotalRecords)
	}
	if report.Summary.Unclassified != 2 {
		t.Fatalf("expected 2 unclassified, got %d", report.Summary.Unclassified)
	}
	bucketed := 0
	var value int64
	for _, b := range report.Buckets {
		bucketed += b.Count
		value += b.ValueCents
	}
	if bucketed != 1 || value != 1_200_000 {
		t.Fatalf("expected only the won record in buckets, got count=%d value=%d", bucketed, value)
	}
	if report.Summary.ConversionRate != 33.3 {
		t.Fatalf("expected unknown statuses in the denominator (33.3), got %v", report.Summary.ConversionRate)
	}
}

func TestAggregateSuccessSummary(t *testing.T) {
	report := Aggregate(lifecycle.LeadTable(), []Record{
		{Status: "won", ValueCents: 1000},
		{Status: "won", ValueCents: 2500},
		{Status: "lost", ValueCents: 9000},
		{Status: "quote_sent", ValueCents: -50},
	})

	if report.Summary.SuccessCount != 2 {
		t.Fatalf("expected 2 wins, got %d", report.Summary.SuccessCount)
	}
	if report.Summary.MatchedValueCents != 3500 {
		t.Fatalf("expected won value 3500, got %d", report.Summary.MatchedValueCents)
	}
	for _, b := range report.Buckets {
		if b.ValueCents < 0 {
			t.Fatalf("bucket %q has negative value %d", b.Status, b.ValueCents)
		}
	}
}

func TestConversionRate(t *testing.T) {
	cases := []struct {
		success, total int
		want           float64
	}{
		{1, 3, 33.3},
		{2, 10, 20},
		{2, 2, 100},
		{0, 0, 0},
		{2, 3, 66.7},
		{1, 8, 12.5},
		{1, 16, 6.3},
	}
	for _, tc := range cases {
		if got := ConversionRate(tc.success, tc.total); got != tc.want {
			t.Fatalf("ConversionRate(%d, %d) = %v, want %v", tc.success, tc.total, got, tc.want)
		}
	}
}

func TestAggregateUsesTableLabels(t *testing.T) {
	report := Aggregate(lifecycle.JobTable(), nil)
	if report.Buckets[4].Label != "Inspection Pending" {
		t.Fatalf("unexpected label %q", report.Buckets[4].Label)
	}
}
