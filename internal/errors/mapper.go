// internal/errors/mapper.go
package errors

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gorm.io/gorm"
)

// Map converts domain/repo/infra errors into gRPC status errors.
// Keeps transport-facing code free of error classification.
func Map(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrForbidden):
		return status.Error(codes.PermissionDenied, err.Error())

	case errors.Is(err, ErrInvalidOperation), errors.Is(err, gorm.ErrCheckConstraintViolated):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, ErrConflict), errors.Is(err, gorm.ErrDuplicatedKey):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, "request timed out")

	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, "request was canceled")

	default:
		// storage and unexpected failures surface as Internal with their message
		return status.Error(codes.Internal, err.Error())
	}
}

// Code classifies err the same way Map does. Used as a log attribute.
func Code(err error) codes.Code {
	return status.Code(Map(err))
}
