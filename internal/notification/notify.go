package notification

import (
	"errors"
	"fmt"

	"github.com/gen2brain/beeep"
)

type Priority int

const (
	PriorityNormal Priority = iota
	PriorityHigh
)

type Notification struct {
	Title    string
	Message  string
	Icon     string
	Priority Priority
}

type Notifier interface {
	Notify(n Notification) error
}

var ErrEmptyTitle = errors.New("notification title is empty")

// Desktop raises notifications through the platform notification service.
type Desktop struct {
	// AlertOnHigh uses the platform alert variant (with its own sound) for
	// high-priority notifications.
	AlertOnHigh bool
}

func NewDesktop(appName string, alertOnHigh bool) *Desktop {
	beeep.AppName = appName
	return &Desktop{AlertOnHigh: alertOnHigh}
}

func (d *Desktop) Notify(n Notification) error {
	if n.Title == "" {
		return ErrEmptyTitle
	}

	var err error
	if d.AlertOnHigh && n.Priority == PriorityHigh {
		err = beeep.Alert(n.Title, n.Message, n.Icon)
	} else {
		err = beeep.Notify(n.Title, n.Message, n.Icon)
	}
	if err != nil {
		return fmt.Errorf("desktop notify: %w", err)
	}
	return nil
}

type Null struct{}

func (Null) Notify(Notification) error { return nil }
