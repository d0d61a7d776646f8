package api

import "time"

// v0 contains public types shared by the CLI, the journal and answers files.

// Answers are the operator-supplied values for one provisioning run.
// Blank Hostname, Timezone and Username fall back to the defaults below.
type Answers struct {
	Hostname string   `json:"hostname" yaml:"hostname"`
	Timezone string   `json:"timezone" yaml:"timezone"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"-" yaml:"password"`
	SSHKeys  []string `json:"ssh_keys" yaml:"ssh_keys"`
}

const (
	DefaultHostname = "vm"
	DefaultTimezone = "Europe/Moscow"
	DefaultUsername = "admin"
)

type StepStatus string

const (
	StepApplied StepStatus = "applied"
	StepSkipped StepStatus = "skipped"
	StepWarned  StepStatus = "warned"
	StepFailed  StepStatus = "failed"
)

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// RunRecord is one journaled provisioning run.
type RunRecord struct {
	ID         string    `json:"id"`
	Target     string    `json:"target"`
	Status     RunStatus `json:"status"`
	Hostname   string    `json:"hostname,omitempty"`
	Username   string    `json:"username,omitempty"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// StepRecord is one journaled step result.
type StepRecord struct {
	RunID    string        `json:"run_id"`
	Seq      int           `json:"seq"`
	Name     string        `json:"name"`
	Status   StepStatus    `json:"status"`
	Message  string        `json:"message,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}
