package domain

import "time"

// SpotAction is the action the provider intends to take at a notice's
// ActionTime.
type SpotAction int

const (
	ActionTerminate SpotAction = iota
	ActionStop
	ActionHibernate
)

func (a SpotAction) String() string {
	switch a {
	case ActionTerminate:
		return "terminate"
	case ActionStop:
		return "stop"
	case ActionHibernate:
		return "hibernate"
	default:
		return "unknown"
	}
}

// ParseSpotAction parses the metadata endpoint's action string.
func ParseSpotAction(s string) (SpotAction, error) {
	switch s {
	case "terminate":
		return ActionTerminate, nil
	case "stop":
		return ActionStop, nil
	case "hibernate":
		return ActionHibernate, nil
	default:
		return 0, ErrUnknownSpotAction
	}
}

// Notice is a provider-issued preemption warning. It carries no identity —
// it always refers to the node that observed it. The orchestrator only
// acts on ActionTerminate.
type Notice struct {
	Action            SpotAction
	ActionTime        time.Time
	SecondsUntilAction float64
}

// SecondsUntil computes the notice's SecondsUntilAction field given now,
// clamped at zero.
func SecondsUntil(actionTime, now time.Time) float64 {
	d := actionTime.Sub(now).Seconds()
	if d < 0 {
		return 0
	}
	return d
}
