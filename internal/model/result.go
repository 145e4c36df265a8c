package model

// EventResult holds the decoded ledger of one terminal event's transaction.
type EventResult struct {
	Event     TerminalEvent
	LogCount  int
	Transfers []DecodedTransfer
	Skipped   []SkippedLog
	Err       error
}

// Failed reports whether the event's receipt could not be processed.
func (r EventResult) Failed() bool {
	return r.Err != nil
}

// RaffleResult is the pipeline output for one raffle.
type RaffleResult struct {
	Ref        RaffleRef
	Window     ScanWindow
	EventCount int
	Events     []EventResult
	Err        error
}

// Failed reports whether the raffle's scan failed.
func (r RaffleResult) Failed() bool {
	return r.Err != nil
}
