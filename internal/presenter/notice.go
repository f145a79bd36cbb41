package presenter

// Level is the severity of an inline status line.
type Level string

// Notice levels, rendered with matching colors.
const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is one inline status line shown for a single interaction.
type Notice struct {
	Level   Level
	Message string
}

// Info creates an info notice.
func Info(msg string) Notice { return Notice{Level: LevelInfo, Message: msg} }

// Success creates a success notice.
func Success(msg string) Notice { return Notice{Level: LevelSuccess, Message: msg} }

// Warning creates a warning notice.
func Warning(msg string) Notice { return Notice{Level: LevelWarning, Message: msg} }

// Error creates an error notice.
func Error(msg string) Notice { return Notice{Level: LevelError, Message: msg} }
