// Package response provides the JSON envelope used by every scanapi API
// response: a data field on success and an error field on failure.
package response

import (
	"encoding/json"
	"net/http"

	"github.com/t569/scanapi/pkg/errors"
)

// Response represents the standardized API response structure.
type Response struct {
	Data  any    `json:"data"`
	Error *Error `json:"error"`
}

// Error represents an API error. Fields and Body are only set for
// request validation failures.
type Error struct {
	Code    string              `json:"code"`
	Message string              `json:"message"`
	Details string              `json:"details,omitempty"`
	Fields  []errors.FieldError `json:"fields,omitempty"`
	Body    any                 `json:"body,omitempty"`
}

// Success creates a successful response with data.
func Success(data any) Response {
	return Response{Data: data}
}

// Fail creates an error response.
func Fail(code, message, details string) Response {
	return Response{
		Error: &Error{
			Code:    code,
			Message: message,
			Details: details,
		},
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	// headers are already sent, nothing useful to do on failure
	_ = json.NewEncoder(w).Encode(resp)
}

// OK writes a successful response with 200 status.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Success(data))
}

// Created writes a successful response with 201 status.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, Success(data))
}

// NoContent writes an empty 204 response.
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Blob writes raw bytes with the given media type.
func Blob(w http.ResponseWriter, mediaType string, data []byte) {
	w.Header().Set("Content-Type", mediaType)
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusBadRequest, Fail("BAD_REQUEST", message, details))
}

// InvalidCredential writes a 400 response that says nothing about which
// part of the credential was wrong.
func InvalidCredential(w http.ResponseWriter) {
	JSON(w, http.StatusBadRequest, Fail("INVALID_CREDENTIAL", "Invalid credential", ""))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusUnauthorized, Fail("UNAUTHORIZED", message, details))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, message, details string) {
	JSON(w, http.StatusNotFound, Fail("NOT_FOUND", message, details))
}

// InvalidURL writes the 404 response used for rejected endpoint URLs.
func InvalidURL(w http.ResponseWriter, message string) {
	JSON(w, http.StatusNotFound, Fail("INVALID_URL", "Invalid URL", message))
}

// MethodNotAllowed writes a 405 error response.
func MethodNotAllowed(w http.ResponseWriter, method string) {
	JSON(w, http.StatusMethodNotAllowed, Fail(
		"METHOD_NOT_ALLOWED",
		"Method not allowed",
		"Method "+method+" is not supported for this endpoint",
	))
}

// Conflict writes a 409 error response.
func Conflict(w http.ResponseWriter, message string) {
	JSON(w, http.StatusConflict, Fail("CONFLICT", message, ""))
}

// ValidationFailed writes a 422 response listing every invalid field and
// echoing the request body that failed.
func ValidationFailed(w http.ResponseWriter, verr *errors.ValidationError) {
	resp := Fail("VALIDATION_ERROR", "Request validation failed", "")
	if len(verr.Fields) > 0 {
		resp.Error.Fields = verr.Fields
	} else {
		resp.Error.Fields = []errors.FieldError{{Loc: verr.Field, Msg: verr.Message}}
	}
	if verr.Body != nil {
		resp.Error.Body = rawBody(verr.Body)
	}
	JSON(w, http.StatusUnprocessableEntity, resp)
}

// rawBody embeds valid JSON as-is and anything else as a string.
func rawBody(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}

// InternalError writes a 500 error response. The error is never exposed.
func InternalError(w http.ResponseWriter, _ error) {
	JSON(w, http.StatusInternalServerError, Fail(
		"INTERNAL_ERROR",
		"Internal server error",
		"An unexpected error occurred",
	))
}

// ServiceUnavailable writes a 503 error response.
func ServiceUnavailable(w http.ResponseWriter, message string) {
	JSON(w, http.StatusServiceUnavailable, Fail(
		"SERVICE_UNAVAILABLE",
		"Service unavailable",
		message,
	))
}

// ErrorFromType maps typed errors to HTTP responses. Wrapped errors are
// unwrapped with errors.As.
func ErrorFromType(w http.ResponseWriter, err error) {
	var (
		invalidURL *errors.InvalidURLError
		notFound   *errors.NotFoundError
		credential *errors.InvalidCredentialError
		validation *errors.ValidationError
		conflict   *errors.ConflictError
		encoding   *errors.EncodingError
	)

	switch {
	case errors.As(err, &invalidURL):
		InvalidURL(w, invalidURL.Error())
	case errors.As(err, &notFound):
		NotFound(w, notFound.Error(), "")
	case errors.As(err, &credential):
		InvalidCredential(w)
	case errors.As(err, &validation):
		ValidationFailed(w, validation)
	case errors.As(err, &conflict):
		Conflict(w, conflict.Error())
	case errors.As(err, &encoding):
		if encoding.UserSupplied {
			JSON(w, http.StatusBadRequest, Fail("ENCODING_ERROR", "Payload cannot be encoded", encoding.Message))
			return
		}
		InternalError(w, err)
	default:
		InternalError(w, err)
	}
}
