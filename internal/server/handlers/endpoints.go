package handlers

import (
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/t569/scanapi/internal/registry"
	"github.com/t569/scanapi/internal/server/response"
	"github.com/t569/scanapi/internal/validation"
	"github.com/t569/scanapi/pkg/endpoints"
	"github.com/t569/scanapi/pkg/errors"
	"github.com/t569/scanapi/pkg/logging"
)

// SecretHeader may carry the endpoint secret instead of the query string.
const SecretHeader = "X-Endpoint-Secret"

// ListResult is the body of a list response.
type ListResult struct {
	Endpoints []endpoints.Endpoint `json:"endpoints"`
	Count     int                  `json:"count"`
	Skip      int                  `json:"skip"`
	Limit     int                  `json:"limit"`
}

// HandleHome handles GET /.
// @Summary Service banner
// @Tags meta
// @Produce json
// @Success 200 {object} response.Response{data=string}
// @Router / [get].
func (h *Handlers) HandleHome(w http.ResponseWriter, _ *http.Request) {
	response.OK(w, "File Sharing service")
}

// HandleCreateEndpoint handles POST /api/v1/endpoint.
// @Summary Register an endpoint
// @Description Registers a named URL behind a secret and generates its QR code.
// @Description An existing name is left untouched and the request is echoed with 200.
// @Tags endpoints
// @Accept json
// @Produce json
// @Param body body endpoints.CreateRequest true "Endpoint"
// @Success 201 {object} response.Response{data=endpoints.Endpoint}
// @Success 200 {object} response.Response{data=endpoints.Endpoint}
// @Failure 404 {object} response.Response{error=response.Error} "INVALID_URL"
// @Failure 409 {object} response.Response{error=response.Error}
// @Failure 422 {object} response.Response{error=response.Error}
// @Router /api/v1/endpoint [post].
func (h *Handlers) HandleCreateEndpoint(w http.ResponseWriter, r *http.Request) {
	body, ok := h.readBody(w, r)
	if !ok {
		return
	}

	req, err := h.validator.ParseCreate(body)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	ctx := logging.WithEndpoint(r.Context(), req.Name)
	res, err := h.registry.Create(ctx, req)
	if err != nil {
		h.logFailure(r, "create", req.Name, err)
		response.ErrorFromType(w, err)
		return
	}

	if res.Created {
		response.Created(w, res.Endpoint)
		return
	}
	response.OK(w, res.Endpoint)
}

// HandleFetchArtifact handles GET /api/v1/endpoints/{name}.
// @Summary Fetch the QR code of an endpoint
// @Description The secret may be passed as ?secret=, ?password=, a form field or the X-Endpoint-Secret header.
// @Tags endpoints
// @Produce image/png
// @Param name path string true "Endpoint name"
// @Param secret query string false "Endpoint secret"
// @Success 200 {file} binary
// @Failure 400 {object} response.Response{error=response.Error} "INVALID_CREDENTIAL"
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 422 {object} response.Response{error=response.Error}
// @Router /api/v1/endpoints/{name} [get].
func (h *Handlers) HandleFetchArtifact(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	secret, ok := h.secret(w, r)
	if !ok {
		response.ErrorFromType(w, errors.NewBodyValidationError([]errors.FieldError{{
			Loc:  "query/secret",
			Msg:  "field required",
			Type: "required",
		}}, nil))
		return
	}

	art, err := h.registry.Fetch(logging.WithEndpoint(r.Context(), name), name, secret)
	if err != nil {
		h.logFailure(r, "fetch", name, err)
		response.ErrorFromType(w, err)
		return
	}
	response.Blob(w, art.MediaType, art.Data)
}

// HandleListEndpoints handles GET /api/v1/endpoints.
// @Summary List endpoints
// @Tags endpoints
// @Produce json
// @Param skip query integer false "Records to skip (default 0)"
// @Param limit query integer false "Maximum records (default 100, max 1000)"
// @Success 200 {object} response.Response{data=ListResult}
// @Failure 422 {object} response.Response{error=response.Error}
// @Router /api/v1/endpoints [get].
func (h *Handlers) HandleListEndpoints(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := validation.ParsePage(q.Get("skip"), q.Get("limit"))
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	cacheKey := h.cache.Key("endpoints", page.Skip, page.Limit)
	if cached, found := h.cache.Get(cacheKey); found {
		w.Header().Set("X-Cache", "HIT")
		response.OK(w, cached)
		return
	}

	eps, err := h.registry.List(r.Context(), page)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}
	total, err := h.registry.Count(r.Context())
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	result := ListResult{Endpoints: eps, Count: total, Skip: page.Skip, Limit: page.Limit}
	h.cache.Set(cacheKey, result)
	w.Header().Set("X-Cache", "MISS")
	response.OK(w, result)
}

// HandleUpdateEndpoint handles PATCH /api/v1/endpoint/{name}.
// @Summary Update an endpoint
// @Description With the default discard policy the merged record is built but not stored and 204 is returned.
// @Description With the persist policy the current secret must be supplied and the stored endpoint is returned.
// @Tags endpoints
// @Accept json
// @Produce json
// @Param name path string true "Endpoint name"
// @Param secret query string false "Current secret (persist policy)"
// @Success 200 {object} response.Response{data=endpoints.Endpoint}
// @Success 204 "No Content"
// @Failure 400 {object} response.Response{error=response.Error}
// @Failure 404 {object} response.Response{error=response.Error}
// @Failure 422 {object} response.Response{error=response.Error}
// @Router /api/v1/endpoint/{name} [patch].
func (h *Handlers) HandleUpdateEndpoint(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")

	body, ok := h.readBody(w, r)
	if !ok {
		return
	}
	req, err := h.validator.ParseUpdate(body)
	if err != nil {
		response.ErrorFromType(w, err)
		return
	}

	// the body's secret is the new one; the current one comes from the
	// query string or header
	current := firstNonEmpty(r.URL.Query().Get("secret"), r.URL.Query().Get("password"), r.Header.Get(SecretHeader))
	if current == "" && h.registry.UpdatePolicy() == registry.UpdatePersist {
		response.ErrorFromType(w, errors.NewBodyValidationError([]errors.FieldError{{
			Loc:  "query/secret",
			Msg:  "field required",
			Type: "required",
		}}, body))
		return
	}

	updated, err := h.registry.Update(logging.WithEndpoint(r.Context(), name), name, current, req)
	if err != nil {
		h.logFailure(r, "update", name, err)
		response.ErrorFromType(w, err)
		return
	}
	if updated == nil {
		response.NoContent(w)
		return
	}
	response.OK(w, updated)
}

// readBody reads at most maxBodyBytes. It writes the error response itself.
func (h *Handlers) readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.JSON(w, http.StatusRequestEntityTooLarge, response.Fail("PAYLOAD_TOO_LARGE", "Request body too large", ""))
			return nil, false
		}
		response.BadRequest(w, "Could not read request body", "")
		return nil, false
	}
	return body, true
}

// secret reads the endpoint secret. The first value present wins, in
// order: form body secret, form body password, query secret, query
// password, X-Endpoint-Secret header.
func (h *Handlers) secret(w http.ResponseWriter, r *http.Request) (string, bool) {
	switch ct := r.Header.Get("Content-Type"); {
	case strings.HasPrefix(ct, "application/x-www-form-urlencoded"):
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		_ = r.ParseForm()
	case strings.HasPrefix(ct, "multipart/form-data"):
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		_ = r.ParseMultipartForm(maxBodyBytes)
	}

	keys := []string{"secret", "password"}
	for _, values := range []url.Values{r.PostForm, r.URL.Query()} {
		for _, key := range keys {
			if values.Has(key) {
				return values.Get(key), true
			}
		}
	}
	if v := r.Header.Get(SecretHeader); v != "" {
		return v, true
	}
	return "", false
}

func (h *Handlers) logFailure(r *http.Request, op, name string, err error) {
	ev := logging.FromContext(r.Context()).Debug()
	if !errors.IsNotFound(err) && !errors.IsInvalidCredential(err) &&
		!errors.IsInvalidURL(err) && !errors.IsValidationError(err) && !errors.IsAlreadyExists(err) {
		ev = logging.FromContext(r.Context()).Error()
	}
	ev.Err(err).Str("operation", op).Str("endpoint", name).Msg("registry operation failed")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
