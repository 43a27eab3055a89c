package taskname

const (
	// Evaluation tasks
	EvaluationTierRun  = "evaluation:tier:run"
	EvaluationTrustRun = "evaluation:trust:run"

	// Payout tasks
	PayoutRun = "payout:run"

	// Notification tasks
	NotificationDispatch = "notification:dispatch"
)
