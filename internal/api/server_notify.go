package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"contestpush/pkg/realtime"
)

type eventBody struct {
	Event   string `json:"event" minLength:"1" maxLength:"64" doc:"Event name delivered on the event line"`
	Payload any    `json:"payload,omitempty" doc:"Any JSON value; delivered on the data line"`
}

func registerNotificationHandlers(api huma.API, d Dispatcher) {
	type connectionsOutput struct {
		Body realtime.ConnectionCount
	}
	huma.Register(api, huma.Operation{OperationID: "count-connections", Method: http.MethodGet, Path: "/api/v1/connections", Summary: "Count connected users and open channels", Tags: []string{"Notifications"}},
		func(ctx context.Context, input *struct{}) (*connectionsOutput, error) {
			out := &connectionsOutput{}
			out.Body = d.CountConnections()
			return out, nil
		})

	type sendInput struct {
		UserID string `path:"user_id" minLength:"1"`
		Body   eventBody
	}
	type sendOutput struct {
		Body struct {
			Delivered bool `json:"delivered" doc:"True when the user had at least one live channel"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "send-to-user", Method: http.MethodPost, Path: "/api/v1/users/{user_id}/events", Summary: "Push an event to every live session of a user", Tags: []string{"Notifications"}},
		func(ctx context.Context, input *sendInput) (*sendOutput, error) {
			out := &sendOutput{}
			out.Body.Delivered = d.SendToUser(input.UserID, input.Body.Event, input.Body.Payload)
			return out, nil
		})

	type broadcastInput struct {
		Body eventBody
	}
	huma.Register(api, huma.Operation{OperationID: "broadcast", Method: http.MethodPost, Path: "/api/v1/events", Summary: "Push an event to every live channel", Tags: []string{"Notifications"}, DefaultStatus: http.StatusAccepted},
		func(ctx context.Context, input *broadcastInput) (*struct{}, error) {
			d.Broadcast(input.Body.Event, input.Body.Payload)
			return nil, nil
		})
}
