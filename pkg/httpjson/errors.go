package httpjson

import (
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// StatusFromGRPC maps an error carrying a gRPC status to an HTTP status, a
// stable code string and the message to show. Errors without a status are
// internal and their text is not exposed.
func StatusFromGRPC(err error) (int, string, string) {
	st, ok := status.FromError(err)
	if !ok {
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}

	switch st.Code() {
	case codes.OK:
		return http.StatusOK, "OK", ""
	case codes.InvalidArgument, codes.OutOfRange:
		return http.StatusBadRequest, "INVALID_ARGUMENT", st.Message()
	case codes.NotFound:
		return http.StatusNotFound, "NOT_FOUND", st.Message()
	case codes.FailedPrecondition, codes.AlreadyExists, codes.Aborted:
		return http.StatusConflict, "FAILED_PRECONDITION", st.Message()
	case codes.Unauthenticated:
		return http.StatusUnauthorized, "UNAUTHENTICATED", st.Message()
	case codes.PermissionDenied:
		return http.StatusForbidden, "PERMISSION_DENIED", st.Message()
	case codes.ResourceExhausted:
		return http.StatusTooManyRequests, "RESOURCE_EXHAUSTED", st.Message()
	case codes.Unavailable, codes.DeadlineExceeded:
		return http.StatusServiceUnavailable, "UNAVAILABLE", st.Message()
	case codes.Canceled:
		return http.StatusRequestTimeout, "CANCELED", st.Message()
	default:
		return http.StatusInternalServerError, "INTERNAL", "internal error"
	}
}
