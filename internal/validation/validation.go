// Package validation checks request bodies and query parameters before they
// reach the registry. Failures are returned as *errors.ValidationError with
// one FieldError per offending location and the raw body attached.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/t569/scanapi/pkg/endpoints"
	"github.com/t569/scanapi/pkg/errors"
)

// Page defaults for list queries.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Validator holds compiled request schemas. It is safe for concurrent use.
type Validator struct {
	create  *jsonschema.Schema
	update  *jsonschema.Schema
	printer *message.Printer
}

// New compiles the request schemas.
func New() (*Validator, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	for url, src := range map[string]string{
		createSchemaURL: createSchemaJSON,
		updateSchemaURL: updateSchemaJSON,
	} {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(src))
		if err != nil {
			return nil, fmt.Errorf("unmarshal schema %s: %w", url, err)
		}
		if err := c.AddResource(url, doc); err != nil {
			return nil, fmt.Errorf("add schema resource %s: %w", url, err)
		}
	}

	create, err := c.Compile(createSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile create schema: %w", err)
	}
	update, err := c.Compile(updateSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile update schema: %w", err)
	}

	return &Validator{
		create:  create,
		update:  update,
		printer: message.NewPrinter(language.English),
	}, nil
}

// MustNew is like New but panics on error. The schemas are constants, so
// a failure here is a programming error.
func MustNew() *Validator {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

type createBody struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Secret   string `json:"secret"`
	Password string `json:"password"`
}

type updateBody struct {
	Name     *string `json:"name"`
	URL      *string `json:"url"`
	Secret   *string `json:"secret"`
	Password *string `json:"password"`
}

// ParseCreate validates and decodes a create request body.
func (v *Validator) ParseCreate(body []byte) (endpoints.CreateRequest, error) {
	if err := v.validate(v.create, body); err != nil {
		return endpoints.CreateRequest{}, err
	}

	var b createBody
	if err := json.Unmarshal(body, &b); err != nil {
		return endpoints.CreateRequest{}, decodeFailure(body, err)
	}
	secret := b.Secret
	if secret == "" {
		secret = b.Password
	}
	return endpoints.CreateRequest{Name: b.Name, URL: b.URL, Secret: secret}, nil
}

// ParseUpdate validates and decodes a partial update body.
func (v *Validator) ParseUpdate(body []byte) (endpoints.UpdateRequest, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return endpoints.UpdateRequest{}, nil
	}
	if err := v.validate(v.update, body); err != nil {
		return endpoints.UpdateRequest{}, err
	}

	var b updateBody
	if err := json.Unmarshal(body, &b); err != nil {
		return endpoints.UpdateRequest{}, decodeFailure(body, err)
	}
	req := endpoints.UpdateRequest{Name: b.Name, URL: b.URL, Secret: b.Secret}
	if req.Secret == nil {
		req.Secret = b.Password
	}
	return req, nil
}

// ParsePage reads skip and limit query values. Empty strings take defaults.
func ParsePage(skipRaw, limitRaw string) (endpoints.Page, error) {
	page := endpoints.Page{Skip: 0, Limit: DefaultLimit}
	var fields []errors.FieldError

	if skipRaw != "" {
		n, err := strconv.Atoi(skipRaw)
		switch {
		case err != nil:
			fields = append(fields, errors.FieldError{Loc: "query/skip", Msg: "value is not a valid integer", Type: "type"})
		case n < 0:
			fields = append(fields, errors.FieldError{Loc: "query/skip", Msg: "must be greater than or equal to 0", Type: "minimum"})
		default:
			page.Skip = n
		}
	}
	if limitRaw != "" {
		n, err := strconv.Atoi(limitRaw)
		switch {
		case err != nil:
			fields = append(fields, errors.FieldError{Loc: "query/limit", Msg: "value is not a valid integer", Type: "type"})
		case n < 0:
			fields = append(fields, errors.FieldError{Loc: "query/limit", Msg: "must be greater than or equal to 0", Type: "minimum"})
		case n > MaxLimit:
			fields = append(fields, errors.FieldError{Loc: "query/limit", Msg: fmt.Sprintf("must be less than or equal to %d", MaxLimit), Type: "maximum"})
		default:
			page.Limit = n
		}
	}

	if len(fields) > 0 {
		return endpoints.Page{}, errors.NewBodyValidationError(fields, nil)
	}
	return page, nil
}

func (v *Validator) validate(sch *jsonschema.Schema, body []byte) error {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return decodeFailure(body, err)
	}
	if err := sch.Validate(doc); err != nil {
		verr, ok := err.(*jsonschema.ValidationError)
		if !ok {
			return errors.NewBodyValidationError([]errors.FieldError{{Loc: "/", Msg: err.Error()}}, body)
		}
		return errors.NewBodyValidationError(v.collectViolations(verr), body)
	}
	return nil
}

// collectViolations walks the error tree and returns one FieldError per leaf.
func (v *Validator) collectViolations(verr *jsonschema.ValidationError) []errors.FieldError {
	if len(verr.Causes) > 0 {
		var out []errors.FieldError
		for _, cause := range verr.Causes {
			out = append(out, v.collectViolations(cause)...)
		}
		return out
	}

	loc := "/" + strings.Join(verr.InstanceLocation, "/")
	keyword := ""
	if path := verr.ErrorKind.KeywordPath(); len(path) > 0 {
		keyword = path[len(path)-1]
	}

	if req, ok := verr.ErrorKind.(*kind.Required); ok {
		out := make([]errors.FieldError, 0, len(req.Missing))
		for _, name := range req.Missing {
			out = append(out, errors.FieldError{
				Loc:  strings.TrimSuffix(loc, "/") + "/" + name,
				Msg:  "field required",
				Type: "required",
			})
		}
		return out
	}

	return []errors.FieldError{{
		Loc:  loc,
		Msg:  verr.ErrorKind.LocalizedString(v.printer),
		Type: keyword,
	}}
}

func decodeFailure(body []byte, err error) error {
	return errors.NewBodyValidationError([]errors.FieldError{{
		Loc:  "/",
		Msg:  "invalid JSON: " + err.Error(),
		Type: "json_invalid",
	}}, body)
}
