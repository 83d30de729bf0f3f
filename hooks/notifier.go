package hooks

import (
	log "github.com/sirupsen/logrus"
)

// Notifier receives user-visible operation outcomes. It is the transient
// notification surface of the dashboard; failures never propagate past it into
// rendering code.
type Notifier interface {
	Success(title, message string)
	Error(title, message string)
}

// LogNotifier reports notifications through logrus. It is the default when no
// UI notification sink is attached.
type LogNotifier struct {
	Logger *log.Logger
}

func (n LogNotifier) Success(title, message string) {
	n.logger().WithField("title", title).Info(message)
}

func (n LogNotifier) Error(title, message string) {
	n.logger().WithField("title", title).Error(message)
}

func (n LogNotifier) logger() *log.Logger {
	if n.Logger != nil {
		return n.Logger
	}
	return log.StandardLogger()
}
