package status

type StatusContainer struct {
	Hub     *Hub
	Handler *Handler
}

// NewStatusContainer takes the hub separately because the scheduler needs
// it as an observer before the handler can be built.
func NewStatusContainer(hub *Hub, tasks Snapshotter, refresher Refresher) *StatusContainer {
	return &StatusContainer{
		Hub:     hub,
		Handler: NewHandler(tasks, refresher, hub),
	}
}
