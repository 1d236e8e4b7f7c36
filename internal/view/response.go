package view

import (
	"net/http"

	"github.com/dwarvesf/bridge-relayer/internal/errs"
)

type Response[T any] struct {
	Data    T           `json:"data"`
	Error   string      `json:"error,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
	Payload interface{} `json:"payload,omitempty"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// CreateResponse builds the response envelope. Only caller facing kinds expose the error text.
func CreateResponse[T any](data T, err error, payload interface{}, message string) Response[T] {
	resp := Response[T]{
		Data:    data,
		Message: message,
		Payload: payload,
	}
	if err == nil {
		return resp
	}

	kind := errs.KindOf(err)
	resp.Kind = string(kind)
	switch kind {
	case errs.KindValidation, errs.KindUnsupportedToken, errs.KindUnsupportedChainType,
		errs.KindIntentNotFound, errs.KindDepositNotConfirmed:
		resp.Error = err.Error()
	default:
		resp.Error = string(kind)
	}
	return resp
}

// StatusOf maps an error kind to the HTTP status the API answers with.
func StatusOf(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch errs.KindOf(err) {
	case errs.KindValidation, errs.KindUnsupportedToken, errs.KindUnsupportedChainType:
		return http.StatusBadRequest
	case errs.KindIntentNotFound:
		return http.StatusNotFound
	case errs.KindConflict:
		return http.StatusConflict
	case errs.KindDepositNotConfirmed:
		return http.StatusAccepted
	case errs.KindAdapterUnavailable, errs.KindSubmissionFailure:
		return http.StatusServiceUnavailable
	case errs.KindMintRejected, errs.KindSignatureEncoding:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
