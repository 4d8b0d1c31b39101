package domain

// Named events exchanged over a board connection.
const (
	EventTaskCreate = "task:create"
	EventTaskUpdate = "task:update"
	EventTaskMove   = "task:move"
	EventTaskDelete = "task:delete"
	EventSyncTasks  = "sync:tasks"
	EventError      = "error"
	EventAck        = "ack"
)
