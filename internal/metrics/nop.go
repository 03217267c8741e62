package metrics

import "time"

// Recorder receives repartition run events.
type Recorder interface {
	RunCompleted(dryRun bool, duration time.Duration)
	LocationProcessed(status string)
	MovesPlanned(count int)
	MoveExecuted()
	MoveFailed()
	ListingFailed()
}

// NopRecorder discards every event.
type NopRecorder struct{}

var _ Recorder = (*NopRecorder)(nil)

// NewNop creates a recorder that records nothing.
func NewNop() *NopRecorder {
	return &NopRecorder{}
}

func (n *NopRecorder) RunCompleted(_ bool, _ time.Duration) {}

func (n *NopRecorder) LocationProcessed(_ string) {}

func (n *NopRecorder) MovesPlanned(_ int) {}

func (n *NopRecorder) MoveExecuted() {}

func (n *NopRecorder) MoveFailed() {}

func (n *NopRecorder) ListingFailed() {}
