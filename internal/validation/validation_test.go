package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/t569/scanapi/pkg/errors"
)

func locs(t *testing.T, err error) []string {
	t.Helper()
	var verr *errors.ValidationError
	require.ErrorAs(t, err, &verr)
	out := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		out = append(out, f.Loc)
	}
	return out
}

func TestParseCreate(t *testing.T) {
	v := MustNew()

	req, err := v.ParseCreate([]byte(`{"name":"menu","url":"https://example.com","secret":"s3cret"}`))
	require.NoError(t, err)
	assert.Equal(t, "menu", req.Name)
	assert.Equal(t, "https://example.com", req.URL)
	assert.Equal(t, "s3cret", req.Secret)
}

func TestParseCreate_PasswordAlias(t *testing.T) {
	v := MustNew()

	req, err := v.ParseCreate([]byte(`{"name":"menu","url":"https://example.com","password":"pw"}`))
	require.NoError(t, err)
	assert.Equal(t, "pw", req.Secret)

	req, err = v.ParseCreate([]byte(`{"name":"menu","url":"https://example.com","password":"pw","secret":"wins"}`))
	require.NoError(t, err)
	assert.Equal(t, "wins", req.Secret)
}

func TestParseCreate_Invalid(t *testing.T) {
	v := MustNew()

	tests := []struct {
		name string
		body string
		want []string
	}{
		{"missing url", `{"name":"a","secret":"s"}`, []string{"/url"}},
		{"missing name and url", `{"secret":"s"}`, []string{"/name", "/url"}},
		{"missing credential", `{"name":"a","url":"https://example.com"}`, []string{"/secret", "/password"}},
		{"wrong type", `{"name":"a","url":42,"secret":"s"}`, []string{"/url"}},
		{"empty name", `{"name":"","url":"https://example.com","secret":"s"}`, []string{"/name"}},
		{"not an object", `[]`, []string{"/"}},
		{"malformed", `{"name":`, []string{"/"}},
		{"empty", ``, []string{"/"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.ParseCreate([]byte(tt.body))
			require.Error(t, err)
			assert.True(t, errors.IsValidationError(err))
			assert.ElementsMatch(t, tt.want, locs(t, err))

			var verr *errors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.body, string(verr.Body))
		})
	}
}

func TestParseUpdate(t *testing.T) {
	v := MustNew()

	req, err := v.ParseUpdate([]byte(`{"url":"https://example.org"}`))
	require.NoError(t, err)
	require.NotNil(t, req.URL)
	assert.Equal(t, "https://example.org", *req.URL)
	assert.Nil(t, req.Name)
	assert.Nil(t, req.Secret)

	req, err = v.ParseUpdate([]byte(`{"password":"pw"}`))
	require.NoError(t, err)
	require.NotNil(t, req.Secret)
	assert.Equal(t, "pw", *req.Secret)

	req, err = v.ParseUpdate(nil)
	require.NoError(t, err)
	assert.True(t, req.Empty())

	req, err = v.ParseUpdate([]byte(`{}`))
	require.NoError(t, err)
	assert.True(t, req.Empty())

	_, err = v.ParseUpdate([]byte(`{"url":true}`))
	assert.Equal(t, []string{"/url"}, locs(t, err))
}

func TestParsePage(t *testing.T) {
	page, err := ParsePage("", "")
	require.NoError(t, err)
	assert.Equal(t, 0, page.Skip)
	assert.Equal(t, DefaultLimit, page.Limit)

	page, err = ParsePage("10", "0")
	require.NoError(t, err)
	assert.Equal(t, 10, page.Skip)
	assert.Equal(t, 0, page.Limit)

	_, err = ParsePage("-1", "abc")
	assert.ElementsMatch(t, []string{"query/skip", "query/limit"}, locs(t, err))

	_, err = ParsePage("0", "100000")
	assert.Equal(t, []string{"query/limit"}, locs(t, err))
}
