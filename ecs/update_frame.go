package ecs

// UpdateFrame is what a System sees during one Scheduler frame.
// Commands queued on it are applied after the last system has run.
type UpdateFrame struct {
	DeltaTime float64
	Frame     int64 // zero-based frame counter of the scheduler
	Commands  *Commands
	Manager   *EntityManager
}

func newUpdateFrame(dt float64, frame int64, manager *EntityManager) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Frame:     frame,
		Commands:  newCommands(),
		Manager:   manager,
	}
}
