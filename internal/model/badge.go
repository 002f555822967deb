package model

// Badge is the presentation of a status in lists and detail views.
type Badge struct {
	Label string `json:"label"`
	Color string `json:"color"`
}

var badges = map[Status]Badge{
	StatusPending:     {Label: "Pending review", Color: "amber"},
	StatusApproved:    {Label: "Approved", Color: "green"},
	StatusRejected:    {Label: "Rejected", Color: "red"},
	StatusIDGenerated: {Label: "ID generated", Color: "blue"},
	StatusIDPrinted:   {Label: "ID printed", Color: "indigo"},
	StatusIDCollected: {Label: "ID collected", Color: "gray"},
}

// Badge returns the label and color for s. Unknown values render as a neutral badge.
func (s Status) Badge() Badge {
	if b, ok := badges[s]; ok {
		return b
	}
	return Badge{Label: "Unknown", Color: "gray"}
}
