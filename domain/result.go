package domain

import "fmt"

// Result is the uniform outcome of a mutation intent. The transport layer
// decides whether it travels back as an acknowledgment or an error event.
type Result struct {
	OK      bool
	Task    Task
	Message string
}

func Ok(t Task) Result {
	return Result{OK: true, Task: t}
}

func Err(message string) Result {
	return Result{Message: message}
}

func Errf(format string, args ...any) Result {
	return Result{Message: fmt.Sprintf(format, args...)}
}
