package payroll

import "context"

// PayrollService defines business logic for the payroll lifecycle
type PayrollService interface {
	// Preview aggregates without persisting anything
	Preview(ctx context.Context, req ComputeRequest) (Breakdown, error)

	// CreateDraft persists a PENDING entry for the period
	CreateDraft(ctx context.Context, req ComputeRequest) (EntryResponse, error)

	// GetEntry recomputes PENDING entries and serves the snapshot of frozen ones
	GetEntry(ctx context.Context, id string) (EntryResponse, error)
	ListEntries(ctx context.Context, filter EntryFilter) ([]EntryResponse, error)

	// Release freezes a PENDING entry of an ended period and archives its discretionary deductions
	Release(ctx context.Context, id string) (EntryResponse, error)

	// ArchivePeriod moves every RELEASED entry of the period to ARCHIVED
	ArchivePeriod(ctx context.Context, req ArchivePeriodRequest) (ArchivePeriodResult, error)

	// ApplyDeduction snapshots a catalog deduction onto an employee
	ApplyDeduction(ctx context.Context, req ApplyDeductionRequest) (DeductionResponse, error)
	ListDeductionTypes(ctx context.Context) ([]DeductionType, error)
}
