package models

import (
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNotFound             = status.Errorf(codes.NotFound, "not found")
	ErrAccountInactive      = status.Error(codes.FailedPrecondition, "account inactive")
	ErrNoEligibleRecipients = status.Error(codes.FailedPrecondition, "no eligible recipients")
	ErrPermissionDenied     = status.Error(codes.PermissionDenied, "permission denied")
	ErrVersionConflict      = status.Error(codes.Aborted, "version conflict")
)

func NewInvalidArgument(format string, args ...any) error {
	return status.Error(codes.InvalidArgument, fmt.Sprintf(format, args...))
}
