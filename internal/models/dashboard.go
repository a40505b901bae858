package models

import "time"

// CountByKey is one row of a grouped count query.
type CountByKey struct {
	Key   string `db:"key" json:"key"`
	Count int    `db:"count" json:"count"`
}

// CycleAggregate summarises completed cycles for a company.
type CycleAggregate struct {
	Completed    int      `db:"completed"`
	Approved     int      `db:"approved"`
	AverageScore *float64 `db:"average_score"`
}

// SessionAggregate summarises finished sessions for a company.
type SessionAggregate struct {
	Finished         int      `db:"finished"`
	Passed           int      `db:"passed"`
	CriticalFailures int      `db:"critical_failures"`
	AverageScore     *float64 `db:"average_score"`
	AveragePrecision *float64 `db:"average_precision"`
}

// CompanyDashboard is the per-tenant overview returned by the dashboard endpoint.
type CompanyDashboard struct {
	CompanyID           string         `json:"company_id"`
	UsersByRole         map[string]int `json:"users_by_role"`
	CyclesByStatus      map[string]int `json:"cycles_by_status"`
	AverageCycleScore   *float64       `json:"average_cycle_score"`
	ApprovalRate        *float64       `json:"approval_rate"`
	SessionsByStatus    map[string]int `json:"sessions_by_status"`
	AverageSessionScore *float64       `json:"average_session_score"`
	AveragePrecision    *float64       `json:"average_precision"`
	SessionPassRate     *float64       `json:"session_pass_rate"`
	CriticalFailures    int            `json:"critical_failures"`
	GeneratedAt         time.Time      `json:"generated_at"`
}
