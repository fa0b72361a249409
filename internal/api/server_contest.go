package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"contestpush/internal/contest"
)

type roomIDInput struct {
	RoomID string `path:"room_id"`
}

type memberInput struct {
	RoomID string `path:"room_id"`
	UserID string `path:"user_id"`
}

type contestIDInput struct {
	ContestID string `path:"contest_id"`
}

type roomOutput struct {
	Body contest.Room
}

type memberOutput struct {
	Body contest.Member
}

type contestOutput struct {
	Body contest.Contest
}

func registerContestHandlers(api huma.API, svc Contests) {
	type createRoomInput struct {
		Body struct {
			Name    string `json:"name" minLength:"1" maxLength:"120"`
			OwnerID string `json:"owner_id" minLength:"1"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "create-room", Method: http.MethodPost, Path: "/api/v1/rooms", Summary: "Create a room", Tags: []string{"Rooms"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *createRoomInput) (*roomOutput, error) {
			room, err := svc.CreateRoom(input.Body.Name, input.Body.OwnerID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &roomOutput{Body: room}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-room", Method: http.MethodGet, Path: "/api/v1/rooms/{room_id}", Summary: "Get a room with its members", Tags: []string{"Rooms"}},
		func(ctx context.Context, input *roomIDInput) (*roomOutput, error) {
			room, err := svc.GetRoom(input.RoomID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &roomOutput{Body: room}, nil
		})

	type joinInput struct {
		RoomID string `path:"room_id"`
		Body   struct {
			UserID string `json:"user_id" minLength:"1"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "join-room", Method: http.MethodPost, Path: "/api/v1/rooms/{room_id}/members", Summary: "Join a room; notifies the owner", Tags: []string{"Rooms"}},
		func(ctx context.Context, input *joinInput) (*memberOutput, error) {
			m, err := svc.JoinRoom(input.RoomID, input.Body.UserID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &memberOutput{Body: m}, nil
		})

	type roleInput struct {
		RoomID string `path:"room_id"`
		UserID string `path:"user_id"`
		Body   struct {
			Role string `json:"role" enum:"admin,judge,member"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "change-role", Method: http.MethodPut, Path: "/api/v1/rooms/{room_id}/members/{user_id}/role", Summary: "Change a member's role; notifies the member", Tags: []string{"Rooms"}},
		func(ctx context.Context, input *roleInput) (*memberOutput, error) {
			m, err := svc.ChangeRole(input.RoomID, input.UserID, input.Body.Role)
			if err != nil {
				return nil, mapErr(err)
			}
			return &memberOutput{Body: m}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "remove-member", Method: http.MethodDelete, Path: "/api/v1/rooms/{room_id}/members/{user_id}", Summary: "Remove a member; notifies the member", Tags: []string{"Rooms"}, DefaultStatus: http.StatusNoContent},
		func(ctx context.Context, input *memberInput) (*struct{}, error) {
			if err := svc.RemoveMember(input.RoomID, input.UserID); err != nil {
				return nil, mapErr(err)
			}
			return nil, nil
		})

	type submitInput struct {
		RoomID string `path:"room_id"`
		Body   struct {
			Title       string `json:"title" minLength:"1" maxLength:"200"`
			SubmittedBy string `json:"submitted_by" minLength:"1"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "submit-contest", Method: http.MethodPost, Path: "/api/v1/rooms/{room_id}/contests", Summary: "Submit a contest for verification", Tags: []string{"Contests"}, DefaultStatus: http.StatusCreated},
		func(ctx context.Context, input *submitInput) (*contestOutput, error) {
			c, err := svc.SubmitContest(input.RoomID, input.Body.Title, input.Body.SubmittedBy)
			if err != nil {
				return nil, mapErr(err)
			}
			return &contestOutput{Body: c}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "get-contest", Method: http.MethodGet, Path: "/api/v1/contests/{contest_id}", Summary: "Get a contest", Tags: []string{"Contests"}},
		func(ctx context.Context, input *contestIDInput) (*contestOutput, error) {
			c, err := svc.GetContest(input.ContestID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &contestOutput{Body: c}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "approve-contest", Method: http.MethodPost, Path: "/api/v1/contests/{contest_id}/approve", Summary: "Approve a pending contest; notifies room members", Tags: []string{"Contests"}},
		func(ctx context.Context, input *contestIDInput) (*contestOutput, error) {
			c, err := svc.ApproveContest(input.ContestID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &contestOutput{Body: c}, nil
		})

	type rejectInput struct {
		ContestID string `path:"contest_id"`
		Body      struct {
			Reason string `json:"reason,omitempty" maxLength:"500"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "reject-contest", Method: http.MethodPost, Path: "/api/v1/contests/{contest_id}/reject", Summary: "Reject a pending contest; notifies room members", Tags: []string{"Contests"}},
		func(ctx context.Context, input *rejectInput) (*contestOutput, error) {
			c, err := svc.RejectContest(input.ContestID, input.Body.Reason)
			if err != nil {
				return nil, mapErr(err)
			}
			return &contestOutput{Body: c}, nil
		})
}
