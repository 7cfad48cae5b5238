package sim

import "github.com/synkti/fleetd/internal/infra/assign"

// MigrationStrategy plans where a preemption's displaced tasks land. Both
// implementations wrap internal/infra/assign's two planners behind the same
// interface so a simulator run can select between them and quantify the gap
// between a cheap heuristic and the optimal matcher, per
// original_source/migration.rs's MigrationPlanner exposing both
// plan_first_fit_migration and plan_optimal_migration.
type MigrationStrategy interface {
	Plan(tasks []assign.Task, targets []assign.Target) assign.Plan
}

// OptimalMigration matches displaced tasks to targets via Kuhn-Munkres
// minimum-cost bipartite matching.
type OptimalMigration struct{}

func (OptimalMigration) Plan(tasks []assign.Task, targets []assign.Target) assign.Plan {
	return assign.Optimal(tasks, targets)
}

// FirstFitMigration assigns each displaced task to the first target with
// room, in task order. Cheaper to compute than OptimalMigration, and worse
// on both placement rate and aggregate transfer time for the same displaced
// set — the gap between the two is the thing a simulation run measures.
type FirstFitMigration struct{}

func (FirstFitMigration) Plan(tasks []assign.Task, targets []assign.Target) assign.Plan {
	return assign.FirstFit(tasks, targets)
}
