package engine

import "fmt"

// ErrorManager collects user-facing problems. Reports made before Activate
// queue up; activation flushes the backlog through the notify callbacks and
// later reports forward immediately. Programmer errors stay ordinary Go
// errors; this channel is for configuration and runtime conditions the
// experiment author needs to see.
type ErrorManager struct {
	errors     []string
	warnings   []string
	active     bool
	sentErr    int
	sentWarn   int
	notifyErr  func(msg string)
	notifyWarn func(msg string)
}

func NewErrorManager(notifyErr, notifyWarn func(string)) *ErrorManager {
	if notifyErr == nil {
		notifyErr = func(string) {}
	}
	if notifyWarn == nil {
		notifyWarn = func(string) {}
	}
	return &ErrorManager{notifyErr: notifyErr, notifyWarn: notifyWarn}
}

func (em *ErrorManager) AddError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	em.errors = append(em.errors, msg)
	if em.active {
		em.sentErr = len(em.errors)
		em.notifyErr(msg)
	}
}

func (em *ErrorManager) AddWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	em.warnings = append(em.warnings, msg)
	if em.active {
		em.sentWarn = len(em.warnings)
		em.notifyWarn(msg)
	}
}

// Activate flushes anything queued and switches to immediate forwarding.
func (em *ErrorManager) Activate() {
	em.active = true
	for _, msg := range em.errors[em.sentErr:] {
		em.notifyErr(msg)
	}
	em.sentErr = len(em.errors)
	for _, msg := range em.warnings[em.sentWarn:] {
		em.notifyWarn(msg)
	}
	em.sentWarn = len(em.warnings)
}

func (em *ErrorManager) Active() bool { return em.active }

func (em *ErrorManager) Errors() []string {
	return append([]string(nil), em.errors...)
}

func (em *ErrorManager) Warnings() []string {
	return append([]string(nil), em.warnings...)
}

func (em *ErrorManager) NumErrors() int   { return len(em.errors) }
func (em *ErrorManager) NumWarnings() int { return len(em.warnings) }

func (em *ErrorManager) Clear() {
	em.errors = nil
	em.warnings = nil
	em.sentErr = 0
	em.sentWarn = 0
}
