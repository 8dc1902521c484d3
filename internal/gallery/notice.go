package gallery

import "time"

// maxNotices bounds the queue when nobody is draining it.
const maxNotices = 20

// Level is a notice's severity.
type Level string

const (
	LevelInfo  Level = "info"
	LevelError Level = "error"
)

// Notice is a transient message for the user.
type Notice struct {
	Level   Level
	Title   string
	Message string
	At      time.Time
}
