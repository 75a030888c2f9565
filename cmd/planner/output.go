package main

import (
	"encoding/json"
	"io"
	"time"

	"github.com/erp/invengine/internal/application/planning"
	"github.com/erp/invengine/internal/application/replenishment"
	"github.com/erp/invengine/internal/application/valuation"
	domainreplenishment "github.com/erp/invengine/internal/domain/replenishment"
	"github.com/erp/invengine/internal/domain/shared/valueobject"
	csvimport "github.com/erp/invengine/internal/infrastructure/import"
)

// planOutput is the JSON document printed by the plan command
type planOutput struct {
	RunID                   string                                  `json:"run_id"`
	GeneratedAt             time.Time                               `json:"generated_at"`
	Valuations              []valuation.ValuationResponse           `json:"valuations"`
	ValuationFailures       []valuation.ValuationFailure            `json:"valuation_failures"`
	Alerts                  []replenishment.AlertResponse           `json:"alerts"`
	Diagnostics             []replenishment.ItemDiagnostic          `json:"diagnostics"`
	Merge                   planning.MergeSummary                   `json:"merge"`
	Suggestions             []replenishment.SuggestionResponse      `json:"suggestions"`
	Unassignable            []domainreplenishment.UnassignableAlert `json:"unassignable"`
	CrossWarehouseSuppliers []string                                `json:"cross_warehouse_suppliers"`
	ImportErrors            []csvimport.RowError                    `json:"import_errors,omitempty"`
	HandlerFailures         int64                                   `json:"handler_failures,omitempty"`
}

func newPlanOutput(r *planning.PlanResult, currency valueobject.Currency) *planOutput {
	valuations := make([]valuation.ValuationResponse, len(r.Valuations))
	for i := range r.Valuations {
		valuations[i] = valuation.ToValuationResponse(&r.Valuations[i], currency)
	}
	return &planOutput{
		RunID:                   r.RunID,
		GeneratedAt:             r.GeneratedAt,
		Valuations:              valuations,
		ValuationFailures:       r.ValuationFailures,
		Alerts:                  replenishment.ToAlertResponses(r.Alerts, currency),
		Diagnostics:             r.Diagnostics,
		Merge:                   r.Merge,
		Suggestions:             replenishment.ToSuggestionResponses(r.Consolidation.Suggestions, currency),
		Unassignable:            r.Consolidation.Unassignable,
		CrossWarehouseSuppliers: r.Consolidation.CrossWarehouseSuppliers,
	}
}

// writeJSON prints v indented, followed by a newline
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
