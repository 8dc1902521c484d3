package azure

import (
	"context"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/koustreak/bucketgallery/internal/errs"
)

// mapError translates an Azure SDK error into a *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		switch respErr.ErrorCode {
		case "ContainerNotFound", "BlobNotFound", "ResourceNotFound":
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case "AuthenticationFailed", "AuthorizationFailure", "InsufficientAccountPermissions":
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		case "OperationTimedOut", "ServerBusy":
			return errs.Wrap(errs.ErrKindTimeout, msg, err)
		}

		switch respErr.StatusCode {
		case http.StatusNotFound:
			return errs.Wrap(errs.ErrKindNotFound, msg, err)
		case http.StatusForbidden, http.StatusUnauthorized:
			return errs.Wrap(errs.ErrKindPermissionDenied, msg, err)
		}
	}

	return errs.Wrap(errs.ErrKindRemote, msg, err)
}
