package message

import (
	"github.com/labi-le/clickerwatch/internal/settings"
	"github.com/rs/zerolog"
)

type Action string

const (
	ActionShowNotification Action = "showNotification"
	ActionTestNotification Action = "testNotification"
	ActionGetStatus        Action = "getStatus"
	ActionUpdateSettings   Action = "updateSettings"
	ActionTestSound        Action = "testSound"
)

func (a Action) String() string { return string(a) }

// Request is a single message sent to one of the watcher contexts.
type Request struct {
	Action Action

	// showNotification
	Title   string
	Message string

	// updateSettings
	Settings settings.Settings
}

func (r Request) MarshalZerologObject(e *zerolog.Event) {
	e.Stringer("action", r.Action)
	switch r.Action {
	case ActionShowNotification:
		e.Str("title", r.Title)
	case ActionUpdateSettings:
		e.Object("settings", r.Settings)
	}
}

func ShowNotification(title, msg string) Request {
	return Request{Action: ActionShowNotification, Title: title, Message: msg}
}

func UpdateSettings(s settings.Settings) Request {
	return Request{Action: ActionUpdateSettings, Settings: s}
}

// NotificationResult is the outcome of a showNotification or testNotification request.
type NotificationResult struct {
	Success bool
	ID      string
	Error   string
}

func (n NotificationResult) MarshalZerologObject(e *zerolog.Event) {
	e.Bool("success", n.Success)
	if n.ID != "" {
		e.Str("id", n.ID)
	}
	if n.Error != "" {
		e.Str("error", n.Error)
	}
}

// Status is the observer's answer to getStatus.
type Status struct {
	IsMonitoring bool
	// LastOpenState is nil until a baseline sample has been taken.
	LastOpenState *bool
	Settings      settings.Settings
	CheckCount    uint64
}

// Ack answers updateSettings and testSound.
type Ack struct {
	Status string
	Error  string
}

// Response holds exactly one of its parts, matching the request action.
type Response struct {
	Notification *NotificationResult
	Status       *Status
	Ack          *Ack
}

func Notified(id string) Response {
	return Response{Notification: &NotificationResult{Success: true, ID: id}}
}

func NotifyFailed(err string) Response {
	return Response{Notification: &NotificationResult{Success: false, Error: err}}
}

func Acked(status string) Response {
	return Response{Ack: &Ack{Status: status}}
}

func AckedErr(status string, err error) Response {
	return Response{Ack: &Ack{Status: status, Error: err.Error()}}
}

const StatusUnknownAction = "Unknown action"
