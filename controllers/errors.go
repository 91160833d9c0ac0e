package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/filebox/middleware"
	"github.com/cppla/filebox/utils"
)

// Error kinds surfaced by the file handlers. They collapse to coarse HTTP statuses at the boundary.
var (
	ErrUpload           = errors.New("malformed or oversized upload")
	ErrUploadIO         = errors.New("upload write failed")
	ErrMissingFile      = errors.New("no file provided")
	ErrMetadataPersist  = errors.New("file metadata not saved")
	ErrStoreQuery       = errors.New("store query failed")
	ErrNotFound         = errors.New("file not found")
	ErrStorageIntegrity = errors.New("stored file missing")
	ErrBadRequest       = errors.New("invalid request payload")
)

// handlerError pairs an error kind with the client-facing message and the underlying cause.
type handlerError struct {
	kind    error
	message string
	cause   error
}

func newError(kind error, message string, cause error) *handlerError {
	return &handlerError{kind: kind, message: message, cause: cause}
}

func (e *handlerError) Error() string {
	if e.cause == nil {
		return e.kind.Error()
	}
	return e.kind.Error() + ": " + e.cause.Error()
}

func (e *handlerError) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// statusFor maps an error kind to HTTP status and envelope code.
func statusFor(err error) (int, int) {
	switch {
	case errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest, 40001
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, 40002
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, 40401
	case errors.Is(err, ErrStorageIntegrity):
		return http.StatusNotFound, 40402
	case errors.Is(err, ErrUpload):
		return http.StatusInternalServerError, 50001
	case errors.Is(err, ErrUploadIO):
		return http.StatusInternalServerError, 50002
	case errors.Is(err, ErrMetadataPersist):
		return http.StatusInternalServerError, 50003
	case errors.Is(err, ErrStoreQuery):
		return http.StatusInternalServerError, 50004
	default:
		return http.StatusInternalServerError, 50000
	}
}

// fail logs err and writes the JSON error envelope.
func fail(ctx *gin.Context, err error) {
	status, code := statusFor(err)
	message := err.Error()
	var he *handlerError
	if errors.As(err, &he) && he.message != "" {
		message = he.message
	}

	uid, _ := ctx.Get(middleware.ContextUserIDKey)
	if status >= http.StatusInternalServerError {
		utils.Sugar.Errorw(message, "path", ctx.FullPath(), "user_id", uid, "code", code, "err", err)
	} else {
		utils.Sugar.Warnw(message, "path", ctx.FullPath(), "user_id", uid, "code", code, "err", err)
	}
	utils.Error(ctx, status, code, message)
}
