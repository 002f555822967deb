package registration

import "regportal/internal/model"

var graph = map[model.Status][]model.Status{
	model.StatusPending:     {model.StatusApproved, model.StatusRejected},
	model.StatusRejected:    {model.StatusPending},
	model.StatusApproved:    {model.StatusIDGenerated},
	model.StatusIDGenerated: {model.StatusIDPrinted},
	model.StatusIDPrinted:   {model.StatusIDCollected},
}

// CanTransition reports whether from -> to is an edge of the lifecycle graph.
func CanTransition(from, to model.Status) bool {
	for _, s := range graph[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Next lists the statuses reachable from s in one step.
func Next(s model.Status) []model.Status {
	return append([]model.Status(nil), graph[s]...)
}
