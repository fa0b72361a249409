package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"

	"contestpush/internal/contest"
	"contestpush/pkg/realtime"
)

// Dispatcher is the live notification core as seen by the API.
type Dispatcher interface {
	SendToUser(userID, event string, payload any) bool
	Broadcast(event string, payload any)
	CountConnections() realtime.ConnectionCount
}

// Contests is the contest workflow behind the room and contest endpoints.
type Contests interface {
	CreateRoom(name, ownerID string) (contest.Room, error)
	GetRoom(roomID string) (contest.Room, error)
	JoinRoom(roomID, userID string) (contest.Member, error)
	ChangeRole(roomID, userID, role string) (contest.Member, error)
	RemoveMember(roomID, userID string) error
	SubmitContest(roomID, title, submitterID string) (contest.Contest, error)
	GetContest(contestID string) (contest.Contest, error)
	ApproveContest(contestID string) (contest.Contest, error)
	RejectContest(contestID, reason string) (contest.Contest, error)
}

// Register mounts the JSON API and its OpenAPI docs on router.
func Register(router chi.Router, dispatcher Dispatcher, contests Contests) huma.API {
	cfg := huma.DefaultConfig("Contest Push API", "1.0.0")
	api := humachi.New(router, cfg)

	registerHealthHandlers(api)
	registerNotificationHandlers(api, dispatcher)
	registerContestHandlers(api, contests)

	return api
}

func registerHealthHandlers(api huma.API) {
	type healthOutput struct {
		Body struct {
			Status string `json:"status"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "health", Method: http.MethodGet, Path: "/health", Summary: "Health check", Tags: []string{"Health"}},
		func(ctx context.Context, input *struct{}) (*healthOutput, error) {
			out := &healthOutput{}
			out.Body.Status = "ok"
			return out, nil
		})
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, contest.ErrRoomNotFound), errors.Is(err, contest.ErrContestNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, contest.ErrInvalidInput), errors.Is(err, contest.ErrInvalidRole):
		return huma.Error400BadRequest(err.Error())
	case errors.Is(err, contest.ErrNotMember), errors.Is(err, contest.ErrOwnerImmutable):
		return huma.Error422UnprocessableEntity(err.Error())
	case errors.Is(err, contest.ErrAlreadyDecided):
		return huma.Error409Conflict(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
