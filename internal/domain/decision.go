package domain

// Decision is what the model returns for one step: the commands to run next
// and whether it considers the goal reached. A decision lives for exactly one
// loop iteration and is never stored.
type Decision struct {
	Commands []string
	GoalDone bool
}
