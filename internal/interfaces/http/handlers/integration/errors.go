package integration

import (
	"errors"

	"github.com/fitdesk/accessgate/internal/domain/accesscontrol"
	"github.com/fitdesk/accessgate/internal/infrastructure/hikvision"
	apperrors "github.com/fitdesk/accessgate/internal/shared/errors"
)

// toAppError maps domain and provider errors onto HTTP-facing AppErrors.
func toAppError(err error) *apperrors.AppError {
	if appErr := apperrors.GetAppError(err); appErr != nil {
		return appErr
	}

	switch {
	case errors.Is(err, accesscontrol.ErrCredentialNotFound):
		return apperrors.NewNotFoundError("Integration is not configured for this branch")
	case errors.Is(err, accesscontrol.ErrCredentialInactive):
		return apperrors.NewConflictError("Integration is disabled for this branch")
	case errors.Is(err, accesscontrol.ErrInvalidDoorID):
		return apperrors.NewValidationError("Invalid door id", err.Error())
	case errors.Is(err, accesscontrol.ErrDoorNotFound), errors.Is(err, accesscontrol.ErrDeviceNotFound):
		return apperrors.NewNotFoundError("Door not found", err.Error())
	case errors.Is(err, accesscontrol.ErrPersonNotFound):
		return apperrors.NewNotFoundError("Member has no access record in this branch")
	}

	var authErr *accesscontrol.AuthError
	if errors.As(err, &authErr) {
		if authErr.Kind == accesscontrol.AuthInvalidCredentials {
			return apperrors.NewBadGatewayError("Provider rejected the branch credentials")
		}
		return apperrors.NewUnavailableError("Provider authentication is unavailable")
	}

	var syncErr *accesscontrol.SyncError
	if errors.As(err, &syncErr) {
		if syncErr.Kind == accesscontrol.SyncProviderUnreachable {
			return apperrors.NewUnavailableError("Provider is unreachable", syncErr.Error())
		}
		return apperrors.NewBadGatewayError("Provider returned an incomplete device listing", syncErr.Error())
	}

	var mapErr *accesscontrol.MappingError
	if errors.As(err, &mapErr) {
		if mapErr.Kind == accesscontrol.MappingPersonCreateFailed {
			return apperrors.NewBadGatewayError("Failed to register member with the provider")
		}
		return apperrors.NewPartialFailureError("Some doors could not be updated", mapErr.Error())
	}

	if apiErr, ok := hikvision.AsAPIError(err); ok {
		return apperrors.NewBadGatewayError("Provider request failed", apiErr.Error())
	}

	return apperrors.NewInternalError("Internal server error occurred")
}
