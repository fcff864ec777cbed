package logger

import (
	"encoding/json"
	"os"
	"time"
)

type errObject struct {
	Msg string `json:"msg"`
}

type entry struct {
	Timestamp string         `json:"timestamp"`
	Level     string         `json:"level"`
	Service   string         `json:"service"`
	Action    string         `json:"action"`
	Hostname  string         `json:"hostname"`
	Fields    map[string]any `json:"fields,omitempty"`
	Error     *errObject     `json:"error,omitempty"`
}

// Logger emits one JSON object per line to stdout.
type Logger struct {
	service  string
	hostname string
}

func New(service string) *Logger {
	h, err := os.Hostname()
	if err != nil {
		h = "unknown"
	}
	return &Logger{service: service, hostname: h}
}

func (l *Logger) log(level, action string, fields map[string]any, err error) {
	e := entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Level:     level,
		Service:   l.service,
		Action:    action,
		Hostname:  l.hostname,
		Fields:    fields,
	}
	if err != nil {
		e.Error = &errObject{Msg: err.Error()}
	}
	_ = json.NewEncoder(os.Stdout).Encode(e)
}

func (l *Logger) Info(action string, fields map[string]any)  { l.log("INFO", action, fields, nil) }
func (l *Logger) Debug(action string, fields map[string]any) { l.log("DEBUG", action, fields, nil) }
func (l *Logger) Error(action string, err error, fields map[string]any) {
	l.log("ERROR", action, fields, err)
}
