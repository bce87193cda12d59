package pipeline

type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusSucceeded RunStatus = "SUCCEEDED"
	RunStatusFailed    RunStatus = "FAILED"
)

type Trigger string

const (
	TriggerScheduler Trigger = "SCHEDULER"
	TriggerManual    Trigger = "MANUAL"
)
