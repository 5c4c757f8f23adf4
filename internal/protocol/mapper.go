package protocol

import (
	"errors"
	"fmt"

	"github.com/labi-le/clickerwatch/internal/message"
	"github.com/labi-le/clickerwatch/internal/settings"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrMissingAction = errors.New("request has no action")
	ErrEmptyResponse = errors.New("response carries no known payload")
)

const (
	fieldAction   = "action"
	fieldTitle    = "title"
	fieldMessage  = "message"
	fieldSettings = "settings"

	fieldSuccess        = "success"
	fieldNotificationID = "notificationId"
	fieldError          = "error"

	fieldIsMonitoring  = "isMonitoring"
	fieldLastOpenState = "lastOpenState"
	fieldCheckCount    = "checkCount"

	fieldStatus = "status"
)

// RequestToStruct lays a request out as flat JSON-shaped fields.
func RequestToStruct(req message.Request) (*structpb.Struct, error) {
	m := map[string]any{fieldAction: req.Action.String()}

	switch req.Action {
	case message.ActionShowNotification:
		m[fieldTitle] = req.Title
		m[fieldMessage] = req.Message
	case message.ActionUpdateSettings:
		// the settings travel as top-level fields next to the action
		for k, v := range settingsToMap(req.Settings) {
			m[k] = v
		}
	}

	pb, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", req.Action, err)
	}
	return pb, nil
}

func StructToRequest(pb *structpb.Struct) (message.Request, error) {
	m := pb.AsMap()

	action, _ := m[fieldAction].(string)
	if action == "" {
		return message.Request{}, ErrMissingAction
	}

	req := message.Request{Action: message.Action(action)}
	req.Title, _ = m[fieldTitle].(string)
	req.Message, _ = m[fieldMessage].(string)
	if req.Action == message.ActionUpdateSettings {
		req.Settings = settingsFromMap(m)
	}
	return req, nil
}

func ResponseToStruct(resp message.Response) (*structpb.Struct, error) {
	var m map[string]any

	switch {
	case resp.Notification != nil:
		n := resp.Notification
		m = map[string]any{fieldSuccess: n.Success}
		if n.ID != "" {
			m[fieldNotificationID] = n.ID
		}
		if n.Error != "" {
			m[fieldError] = n.Error
		}

	case resp.Status != nil:
		s := resp.Status
		m = map[string]any{
			fieldIsMonitoring:  s.IsMonitoring,
			fieldLastOpenState: nil,
			fieldSettings:      settingsToMap(s.Settings),
			fieldCheckCount:    s.CheckCount,
		}
		if s.LastOpenState != nil {
			m[fieldLastOpenState] = *s.LastOpenState
		}

	case resp.Ack != nil:
		m = map[string]any{fieldStatus: resp.Ack.Status}
		if resp.Ack.Error != "" {
			m[fieldError] = resp.Ack.Error
		}

	default:
		return nil, ErrEmptyResponse
	}

	pb, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("response: %w", err)
	}
	return pb, nil
}

func StructToResponse(pb *structpb.Struct) (message.Response, error) {
	m := pb.AsMap()
	errText, _ := m[fieldError].(string)

	if success, ok := m[fieldSuccess].(bool); ok {
		id, _ := m[fieldNotificationID].(string)
		return message.Response{Notification: &message.NotificationResult{
			Success: success,
			ID:      id,
			Error:   errText,
		}}, nil
	}

	if monitoring, ok := m[fieldIsMonitoring].(bool); ok {
		status := &message.Status{IsMonitoring: monitoring}
		if last, isBool := m[fieldLastOpenState].(bool); isBool {
			status.LastOpenState = &last
		}
		if raw, isMap := m[fieldSettings].(map[string]any); isMap {
			status.Settings = settingsFromMap(raw)
		}
		if count, isNum := m[fieldCheckCount].(float64); isNum && count > 0 {
			status.CheckCount = uint64(count)
		}
		return message.Response{Status: status}, nil
	}

	if status, ok := m[fieldStatus].(string); ok {
		return message.Response{Ack: &message.Ack{Status: status, Error: errText}}, nil
	}

	return message.Response{}, ErrEmptyResponse
}

func settingsToMap(s settings.Settings) map[string]any {
	values := s.Values()
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out
}

func settingsFromMap(raw map[string]any) settings.Settings {
	values := make(map[string]bool, len(raw))
	for k, v := range raw {
		if b, ok := v.(bool); ok {
			values[k] = b
		}
	}
	return settings.FromValues(values)
}
