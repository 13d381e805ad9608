package core

// Logger logs messages and reports them to the error tracker.
// args may hold errors, extra data (map[string]interface{}) and the signed-in user.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
