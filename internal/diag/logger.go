package diag

import "log"

// Logger provides structured logging scoped to one component of the
// persistence/synchronization layer.
type Logger struct {
	component string
}

// NewLogger creates a logger for the given component name.
func NewLogger(component string) *Logger {
	if component == "" {
		component = "unknown"
	}
	return &Logger{component: component}
}

// LogError logs an error with context
func (l *Logger) LogError(operation string, err error) {
	log.Printf("[error] component=%s operation=%s error=%v", l.component, operation, err)
}

// LogInfo logs an info message with context
func (l *Logger) LogInfo(operation string, message string) {
	log.Printf("[info] component=%s operation=%s message=%s", l.component, operation, message)
}

// LogInfof logs a formatted info message with context
func (l *Logger) LogInfof(operation string, format string, args ...interface{}) {
	log.Printf("[info] component=%s operation=%s "+format, append([]interface{}{l.component, operation}, args...)...)
}

// LogWarn logs a warning with context
func (l *Logger) LogWarn(operation string, message string) {
	log.Printf("[warn] component=%s operation=%s message=%s", l.component, operation, message)
}

// LogWarnf logs a formatted warning with context
func (l *Logger) LogWarnf(operation string, format string, args ...interface{}) {
	log.Printf("[warn] component=%s operation=%s "+format, append([]interface{}{l.component, operation}, args...)...)
}
