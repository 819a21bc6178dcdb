package relocator

// Outcome statuses.
const (
	StatusSkipped   = "skipped"
	StatusRelocated = "relocated"
	StatusFailed    = "failed"
)

// Skip and failure reasons.
const (
	ReasonNotNote       = "not_note"
	ReasonNotFromCanvas = "not_from_canvas"
	ReasonNoCanvas      = "no_active_canvas"
	ReasonNoFolder      = "no_target_folder"
	ReasonAlreadyPlaced = "already_in_target"
	ReasonMoveFailed    = "move_failed"
)

// Outcome reports what Handle decided for one notification.
type Outcome struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
	Note   string `json:"note,omitempty"`
	Canvas string `json:"canvas,omitempty"`
	Folder string `json:"folder,omitempty"`
	Target string `json:"target,omitempty"`
	Err    error  `json:"-"`
}

// ErrorText returns the fault text, or "".
func (o Outcome) ErrorText() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}
