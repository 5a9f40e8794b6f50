package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/importgroups-backend/pkg/errors"
)

type sampleBody struct {
	Role  string `json:"role" validate:"required,oneof=carrier importer"`
	Count int    `json:"count" validate:"min=0,max=10"`
}

func TestDecodeJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"role":"carrier","count":2}`))
	var body sampleBody
	require.NoError(t, DecodeJSONBody(req, &body))
	assert.Equal(t, "carrier", body.Role)
	assert.Equal(t, 2, body.Count)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"role":"carrier","extra":true}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
	assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())
}

func TestDecodeJSONBodyReportsFieldErrors(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"role":"pilot","count":11}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)

	details, ok := pkgerrors.As(err).Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "must be one of [carrier importer]", details["role"])
	assert.Equal(t, "must be at most 10", details["count"])
}

func TestDecodeJSONBodyEmptyBodyIsValidated(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	details := pkgerrors.As(err).Details().(map[string]string)
	assert.Equal(t, "is required", details["role"])
}

func TestDecodeJSONBodyRejectsTrailingData(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"role":"carrier"}{"role":"importer"}`))
	var body sampleBody
	err := DecodeJSONBody(req, &body)
	require.Error(t, err)
	assert.Equal(t, "invalid request body", pkgerrors.As(err).Message())
}

func TestValidateStructComparesDecimals(t *testing.T) {
	type weighed struct {
		Kg *decimal.Decimal `json:"kg" validate:"omitempty,gte=0"`
	}
	neg := decimal.RequireFromString("-0.5")
	err := ValidateStruct(&weighed{Kg: &neg})
	require.Error(t, err)
	assert.Equal(t, "must be at least 0", pkgerrors.As(err).Details().(map[string]string)["kg"])

	pos := decimal.RequireFromString("1200.25")
	require.NoError(t, ValidateStruct(&weighed{Kg: &pos}))
	require.NoError(t, ValidateStruct(&weighed{}))
}

func TestQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&bad=x&big=500", nil)
	bounds := IntBounds{Default: 25, Min: 1, Max: 100}

	v, err := QueryInt(req, "limit", bounds)
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	v, err = QueryInt(req, "missing", bounds)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = QueryInt(req, "bad", bounds)
	require.Error(t, err)
	assert.Equal(t, "x", pkgerrors.As(err).Details().(map[string]any)["value"])

	_, err = QueryInt(req, "big", bounds)
	require.Error(t, err)
	assert.Equal(t, 100, pkgerrors.As(err).Details().(map[string]any)["max"])
}

func TestQueryList(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?transport=air,%20land&transport=maritime&empty=", nil)
	assert.Equal(t, []string{"air", "land", "maritime"}, QueryList(req, "transport"))
	assert.Equal(t, []string{}, QueryList(req, "empty"))
	assert.Nil(t, QueryList(req, "missing"))
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def")
	require.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	token, err = BearerToken("  bearer   xyz ")
	require.NoError(t, err)
	assert.Equal(t, "xyz", token)

	token, err = BearerToken("raw-token")
	require.NoError(t, err)
	assert.Equal(t, "raw-token", token)

	_, err = BearerToken("Bearer ")
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = BearerToken("")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestCleanText(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  abcdef ", 3, "abc"},
		{"abcdef", 0, "abcdef"},
		{"Air \t\n  Import", 0, "Air Import"},
		{"Ocean\x00 Freight\x7f", 0, "Ocean Freight"},
		{"a b", 2, "a"},
		{"México Norte", 6, "México"},
		{"   ", 10, ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, CleanText(tc.in, tc.max), tc.in)
	}
}
