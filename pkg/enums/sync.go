package enums

// SyncOutcome labels the result of one sync pass in metrics and events.
type SyncOutcome string

const (
	SyncOutcomeSuccess SyncOutcome = "success"
	SyncOutcomeFailure SyncOutcome = "failure"
	SyncOutcomeLocked  SyncOutcome = "locked"
)

// String implements fmt.Stringer.
func (s SyncOutcome) String() string {
	return string(s)
}

// SyncTrigger records who started a sync pass.
type SyncTrigger string

const (
	SyncTriggerManual    SyncTrigger = "manual"
	SyncTriggerScheduled SyncTrigger = "scheduled"
)

// String implements fmt.Stringer.
func (s SyncTrigger) String() string {
	return string(s)
}
