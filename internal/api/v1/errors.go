package v1

import (
	"errors"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/kanban/internal/domain"
)

// boardError maps service errors onto HTTP problem responses.
func boardError(err error, action string) error {
	var validation *domain.ValidationError
	var notFound *domain.NotFoundError

	switch {
	case errors.As(err, &validation):
		return huma.Error422UnprocessableEntity(validation.Error())
	case errors.As(err, &notFound):
		return huma.Error404NotFound(notFound.Kind + " not found")
	case errors.Is(err, domain.ErrValidation):
		return huma.Error422UnprocessableEntity(action + ": invalid input")
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound("not found")
	default:
		return huma.Error500InternalServerError("failed to "+action, err)
	}
}
