package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"

	"github.com/gosuda/kanban/internal/auth"
	"github.com/gosuda/kanban/internal/board"
	"github.com/gosuda/kanban/internal/domain"
)

type CreateBoardInput struct {
	Body struct {
		Title string `json:"title" minLength:"1" maxLength:"200" doc:"Board title"`
	}
}

type BoardOutput struct {
	Body *domain.Board
}

type ListBoardsOutput struct {
	Body []domain.BoardSummary
}

type BoardPathInput struct {
	BoardID uuid.UUID `path:"boardID" doc:"Board ID"`
}

// MutationOutput is returned by every board mutation. Replayed is set when
// the Idempotency-Key was already used and the command was not re-applied.
type MutationOutput struct {
	Replayed bool `header:"Idempotent-Replayed"`
	Body     *domain.Board
}

type AddLaneInput struct {
	BoardID        uuid.UUID `path:"boardID" doc:"Board ID"`
	IdempotencyKey string    `header:"Idempotency-Key" maxLength:"128" doc:"Optional idempotency key"`
	Body           struct {
		Title string `json:"title" minLength:"1" maxLength:"200" doc:"Lane title"`
	}
}

type RemoveLaneInput struct {
	BoardID        uuid.UUID `path:"boardID" doc:"Board ID"`
	LaneID         uuid.UUID `path:"laneID" doc:"Lane ID"`
	IdempotencyKey string    `header:"Idempotency-Key" maxLength:"128" doc:"Optional idempotency key"`
}

type ReorderLaneInput struct {
	BoardID        uuid.UUID `path:"boardID" doc:"Board ID"`
	LaneID         uuid.UUID `path:"laneID" doc:"Lane ID"`
	IdempotencyKey string    `header:"Idempotency-Key" maxLength:"128" doc:"Optional idempotency key"`
	Body           struct {
		Position int `json:"position" doc:"Target position; out-of-range values are clamped"`
	}
}

type AddCardInput struct {
	BoardID        uuid.UUID `path:"boardID" doc:"Board ID"`
	IdempotencyKey string    `header:"Idempotency-Key" maxLength:"128" doc:"Optional idempotency key"`
	Body           struct {
		LaneID      *uuid.UUID `json:"lane_id,omitempty" doc:"Lane ID; defaults to the board's default lane"`
		Title       string     `json:"title" minLength:"1" maxLength:"500" doc:"Card title"`
		Description *string    `json:"description,omitempty" doc:"Card description"`
	}
}

type RemoveCardInput struct {
	BoardID        uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID         uuid.UUID `path:"cardID" doc:"Card ID"`
	IdempotencyKey string    `header:"Idempotency-Key" maxLength:"128" doc:"Optional idempotency key"`
}

type MoveCardInput struct {
	BoardID        uuid.UUID `path:"boardID" doc:"Board ID"`
	CardID         uuid.UUID `path:"cardID" doc:"Card ID"`
	IdempotencyKey string    `header:"Idempotency-Key" maxLength:"128" doc:"Optional idempotency key"`
	Body           struct {
		TargetLaneID uuid.UUID `json:"target_lane_id" doc:"Destination lane ID"`
		Position     int       `json:"position" minimum:"0" doc:"Target position within the destination lane"`
	}
}

func RegisterBoardRoutes(api huma.API, svc BoardService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-board",
		Method:      http.MethodPost,
		Path:        "/boards",
		Summary:     "Create a board with the default lanes",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *CreateBoardInput) (*BoardOutput, error) {
		tenantID, ok := auth.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		b, err := svc.Create(ctx, tenantID, input.Body.Title)
		if err != nil {
			return nil, boardError(err, "create board")
		}

		return &BoardOutput{Body: &b}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-boards",
		Method:      http.MethodGet,
		Path:        "/boards",
		Summary:     "List boards",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, _ *struct{}) (*ListBoardsOutput, error) {
		tenantID, ok := auth.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		boards, err := svc.List(ctx, tenantID)
		if err != nil {
			return nil, boardError(err, "list boards")
		}

		return &ListBoardsOutput{Body: boards}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-board",
		Method:      http.MethodGet,
		Path:        "/boards/{boardID}",
		Summary:     "Get a kanban board with lanes and cards in display order",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *BoardPathInput) (*BoardOutput, error) {
		tenantID, ok := auth.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		b, err := svc.Get(ctx, tenantID, input.BoardID)
		if err != nil {
			return nil, boardError(err, "get board")
		}

		sorted := board.Sorted(b)
		return &BoardOutput{Body: &sorted}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-board",
		Method:      http.MethodDelete,
		Path:        "/boards/{boardID}",
		Summary:     "Delete a board with all of its lanes and cards",
		Tags:        []string{"Boards"},
	}, func(ctx context.Context, input *BoardPathInput) (*struct{}, error) {
		tenantID, ok := auth.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		if err := svc.Delete(ctx, tenantID, input.BoardID); err != nil {
			return nil, boardError(err, "delete board")
		}

		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-lane",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/lanes",
		Summary:     "Append a lane",
		Tags:        []string{"Lanes"},
	}, func(ctx context.Context, input *AddLaneInput) (*MutationOutput, error) {
		return apply(ctx, svc, input.BoardID, board.AddLaneCommand{Title: input.Body.Title}, input.IdempotencyKey)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-lane",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}/lanes/{laneID}",
		Summary:       "Remove a lane and its cards",
		Description:   "Removing a lane that does not exist succeeds without changes.",
		Tags:          []string{"Lanes"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *RemoveLaneInput) (*MutationOutput, error) {
		return apply(ctx, svc, input.BoardID, board.RemoveLaneCommand{LaneID: input.LaneID}, input.IdempotencyKey)
	})

	huma.Register(api, huma.Operation{
		OperationID: "reorder-lane",
		Method:      http.MethodPatch,
		Path:        "/boards/{boardID}/lanes/{laneID}/position",
		Summary:     "Move a lane to a new position",
		Description: "Positions below zero move the lane first; positions past the end move it last. Unknown lanes are ignored.",
		Tags:        []string{"Lanes"},
	}, func(ctx context.Context, input *ReorderLaneInput) (*MutationOutput, error) {
		cmd := board.ReorderLaneCommand{LaneID: input.LaneID, Position: input.Body.Position}
		return apply(ctx, svc, input.BoardID, cmd, input.IdempotencyKey)
	})

	huma.Register(api, huma.Operation{
		OperationID: "add-card",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/cards",
		Summary:     "Append a card to a lane",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *AddCardInput) (*MutationOutput, error) {
		tenantID, ok := auth.TenantIDFromContext(ctx)
		if !ok {
			return nil, huma.Error403Forbidden("missing tenant context")
		}

		var laneID uuid.UUID
		if input.Body.LaneID != nil {
			laneID = *input.Body.LaneID
		} else {
			id, err := svc.DefaultLaneID(ctx, tenantID, input.BoardID)
			if err != nil {
				return nil, boardError(err, "resolve default lane")
			}
			laneID = id
		}

		cmd := board.AddCardCommand{LaneID: laneID, Title: input.Body.Title, Description: input.Body.Description}
		return apply(ctx, svc, input.BoardID, cmd, input.IdempotencyKey)
	})

	huma.Register(api, huma.Operation{
		OperationID:   "remove-card",
		Method:        http.MethodDelete,
		Path:          "/boards/{boardID}/cards/{cardID}",
		Summary:       "Remove a card",
		Description:   "Removing a card that does not exist succeeds without changes.",
		Tags:          []string{"Cards"},
		DefaultStatus: http.StatusOK,
	}, func(ctx context.Context, input *RemoveCardInput) (*MutationOutput, error) {
		return apply(ctx, svc, input.BoardID, board.RemoveCardCommand{CardID: input.CardID}, input.IdempotencyKey)
	})

	huma.Register(api, huma.Operation{
		OperationID: "move-card",
		Method:      http.MethodPost,
		Path:        "/boards/{boardID}/cards/{cardID}/move",
		Summary:     "Move a card within or across lanes",
		Tags:        []string{"Cards"},
	}, func(ctx context.Context, input *MoveCardInput) (*MutationOutput, error) {
		cmd := board.MoveCardCommand{CardID: input.CardID, TargetLaneID: input.Body.TargetLaneID, Position: input.Body.Position}
		return apply(ctx, svc, input.BoardID, cmd, input.IdempotencyKey)
	})
}

func apply(ctx context.Context, svc BoardService, boardID uuid.UUID, cmd board.Command, idempotencyKey string) (*MutationOutput, error) {
	tenantID, ok := auth.TenantIDFromContext(ctx)
	if !ok {
		return nil, huma.Error403Forbidden("missing tenant context")
	}

	res, err := svc.Apply(ctx, tenantID, boardID, cmd, idempotencyKey)
	if err != nil {
		return nil, boardError(err, "apply "+string(cmd.Kind()))
	}

	sorted := board.Sorted(res.Board)
	return &MutationOutput{Replayed: res.Replayed, Body: &sorted}, nil
}
