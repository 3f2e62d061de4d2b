package ui

// Progress messages fed to the progress program.

// StatusMsg replaces the spinner caption.
type StatusMsg struct {
	Text string
}

// BatchStartMsg switches to a progress bar over Total items.
type BatchStartMsg struct {
	Label string
	Total int
}

// BatchStepMsg advances the bar by one item.
type BatchStepMsg struct {
	Failed bool
}

// BatchDoneMsg prints a finishing line above the live view.
type BatchDoneMsg struct {
	Text string
}

// DoneMsg ends the program.
type DoneMsg struct{}

// LogMsg prints a diagnostic line above the live view.
type LogMsg struct {
	Line string
}
