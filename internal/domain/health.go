package domain

// HealthStatus grades one doctor check.
type HealthStatus string

const (
	HealthOK    HealthStatus = "ok"
	HealthWarn  HealthStatus = "warn"
	HealthError HealthStatus = "error"
)

// HealthCheck is one diagnostic outcome: what was checked, how it went, and
// the detail line shown to the user.
type HealthCheck struct {
	Name    string
	Status  HealthStatus
	Details string
}

// HealthReport collects every check from one doctor pass.
type HealthReport struct {
	Checks []HealthCheck
}

// Healthy reports whether no check errored. Warnings do not count against it.
func (r HealthReport) Healthy() bool {
	for _, check := range r.Checks {
		if check.Status == HealthError {
			return false
		}
	}
	return true
}
