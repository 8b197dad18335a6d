package http

import (
	"encoding/json"
	"net/http"

	apperrors "masterbook/pkg/errors"
)

// Envelope is the body of every successful API call; "ok" is always set to true.
type Envelope map[string]any

type PaginatedResponse struct {
	OK         bool  `json:"ok"`
	Data       any   `json:"data"`
	TotalCount int64 `json:"total_count"`
	Limit      int   `json:"limit"`
	Offset     int64 `json:"offset"`
}

func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

func WriteError(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)

	message := appErr.Message
	if appErr.Code == apperrors.CodeInternal {
		message = "Internal server error"
	}

	_ = WriteJSON(w, appErr.StatusCode(), apperrors.ErrorResponse{
		OK:      false,
		Error:   appErr.Code,
		Message: message,
		Details: appErr.Details,
	})
}

func WriteOK(w http.ResponseWriter, statusCode int, body Envelope) error {
	if body == nil {
		body = Envelope{}
	}
	body["ok"] = true
	return WriteJSON(w, statusCode, body)
}

func WriteSuccess(w http.ResponseWriter, body Envelope) error {
	return WriteOK(w, http.StatusOK, body)
}

func WriteCreated(w http.ResponseWriter, body Envelope) error {
	return WriteOK(w, http.StatusCreated, body)
}

func WritePaginated(w http.ResponseWriter, data any, totalCount int64, limit int, offset int64) error {
	return WriteJSON(w, http.StatusOK, PaginatedResponse{
		OK:         true,
		Data:       data,
		TotalCount: totalCount,
		Limit:      limit,
		Offset:     offset,
	})
}
