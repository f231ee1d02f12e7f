package shared

// Asynq task types
const (
	TypeSweepOrphanedAssets = "asset:sweep_orphaned"
)

// Asynq queue names
const (
	QueueMaintenance = "maintenance"
	QueueDefault     = "default"
)
