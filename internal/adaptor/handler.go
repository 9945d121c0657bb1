package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketplace-auth/internal/usecase"
	"marketplace-auth/pkg/utils"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type Handler struct {
	Auth *AuthHandler
	User *UserHandler
}

// NewHandler builds the HTTP handlers. exposeErrors adds internal error text
// to 500 responses and must only be set in development.
func NewHandler(service *usecase.Service, exposeErrors bool, log *zap.Logger) *Handler {
	errs := &errorWriter{log: log, exposeErrors: exposeErrors}
	return &Handler{
		Auth: NewAuthHandler(service.Auth, errs, log),
		User: NewUserHandler(service.User, errs, log),
	}
}

// decodeJSON reads a JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(dst)
}

type errorWriter struct {
	log          *zap.Logger
	exposeErrors bool
}

// write maps a service error onto the response envelope. Client-facing text
// comes from usecase.Error.Message; the wrapped cause only reaches the log.
func (ew *errorWriter) write(w http.ResponseWriter, err error, operation string) {
	var svcErr *usecase.Error
	if !errors.As(err, &svcErr) {
		svcErr = &usecase.Error{Kind: usecase.KindServer, Message: usecase.MsgServerError, Err: err}
	}

	switch svcErr.Kind {
	case usecase.KindValidation:
		ew.log.Warn(operation+" validation failed", zap.Any("fields", svcErr.Fields))
		utils.ResponseBadRequest(w, svcErr.Message, svcErr.Fields)

	case usecase.KindConflict:
		ew.log.Warn(operation+" failed - already exists", zap.Error(err))
		utils.ResponseBadRequest(w, svcErr.Message, nil)

	case usecase.KindAuth:
		ew.log.Warn(operation+" failed - authentication", zap.Error(err))
		utils.ResponseBadRequest(w, svcErr.Message, nil)

	case usecase.KindNotFound:
		ew.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, svcErr.Message)

	default:
		ew.log.Error("Failed to "+operation, zap.Error(err), zap.String("operation", operation))
		detail := ""
		if ew.exposeErrors && svcErr.Err != nil {
			detail = svcErr.Err.Error()
		}
		utils.ResponseInternalError(w, usecase.MsgServerError, detail)
	}
}
