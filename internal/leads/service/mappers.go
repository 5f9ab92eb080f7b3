package service

import (
	"roofing_backend/internal/leads/repository"
	"roofing_backend/internal/leads/scoring"
	"roofing_backend/internal/leads/transport"
	"roofing_backend/internal/lifecycle"
	"roofing_backend/internal/reports/funnel"
)

// ToFunnelResponse converts an aggregation into the lead funnel payload.
func ToFunnelResponse(report funnel.Report) transport.FunnelResponse {
	stages := make([]transport.FunnelStage, len(report.Buckets))
	for i, b := range report.Buckets {
		stages[i] = transport.FunnelStage{
			Status:     b.Status,
			Label:      b.Label,
			Count:      b.Count,
			ValueCents: b.ValueCents,
		}
	}
	return transport.FunnelResponse{
		Funnel: stages,
		Summary: transport.FunnelSummary{
			TotalLeads:     report.Summary.TotalRecords,
			WonCount:       report.Summary.SuccessCount,
			Unclassified:   report.Summary.Unclassified,
			WonValueCents:  report.Summary.MatchedValueCents,
			ConversionRate: report.Summary.ConversionRate,
		},
	}
}

func toFunnelRecords(in []repository.PipelineRecord) []funnel.Record {
	out := make([]funnel.Record, len(in))
	for i, r := range in {
		out[i] = funnel.Record{Status: r.Status, ValueCents: r.ValueCents}
	}
	return out
}

func toScoringInput(jobType, timeline string, photos int, insurance bool, roofSqFt float64) scoring.Input {
	return scoring.Input{
		JobType:           jobType,
		Timeline:          timeline,
		PhotoCount:        photos,
		HasInsuranceClaim: insurance,
		RoofSizeSqFt:      roofSqFt,
	}
}

func statusOptions(t *lifecycle.Table, statuses []lifecycle.Status) []transport.StatusOption {
	out := make([]transport.StatusOption, len(statuses))
	for i, st := range statuses {
		out[i] = transport.StatusOption{
			Status:   string(st),
			Label:    t.Label(st),
			Terminal: t.IsTerminal(st),
		}
	}
	return out
}
