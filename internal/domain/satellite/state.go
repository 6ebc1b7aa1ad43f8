package satellite

import "time"

// UnitState tracks one migration unit through the pipeline.
// Idle → Reading → (NoneFound → Done) | (Found → Migrating → Committed
// → Cleaning → Idle). A failure while Migrating aborts the whole batch.
type UnitState string

const (
	UnitIdle      UnitState = "IDLE"
	UnitReading   UnitState = "READING"
	UnitMigrating UnitState = "MIGRATING"
	UnitCommitted UnitState = "COMMITTED"
	UnitCleaning  UnitState = "CLEANING"
	UnitDone      UnitState = "DONE"
	UnitAborted   UnitState = "ABORTED"
)

// BatchResult is what a sync run reports back to its trigger
type BatchResult struct {
	MigratedCount int       `json:"migrated_count"`
	LastSync      time.Time `json:"last_sync"`
}
