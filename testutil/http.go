package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertStatusCode(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int) {
	t.Helper()
	assert.Equal(t, expectedStatus, rec.Code, "Response status code mismatch")
}

func AssertHeaderExists(t *testing.T, rec *httptest.ResponseRecorder, header string) {
	t.Helper()
	assert.NotEmpty(t, rec.Header().Get(header), "Header %s should exist", header)
}

func AssertResponseContains(t *testing.T, rec *httptest.ResponseRecorder, substring string) {
	t.Helper()
	assert.Contains(t, rec.Body.String(), substring, "Response body should contain substring")
}

func MustParseJSONResponse(t *testing.T, rec *httptest.ResponseRecorder, target any) {
	t.Helper()

	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json"),
		"Response Content-Type should be application/json")

	err := json.Unmarshal(rec.Body.Bytes(), target)
	require.NoError(t, err, "Failed to parse JSON response")
}

func MustParseHTMLResponse(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()

	require.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"),
		"Response Content-Type should be text/html")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err, "Failed to parse HTML response")

	return doc
}

func AssertErrorResponse(t *testing.T, rec *httptest.ResponseRecorder, expectedStatus int, expectedMessageSubstring string) {
	t.Helper()

	AssertStatusCode(t, rec, expectedStatus)

	if expectedMessageSubstring != "" {
		AssertResponseContains(t, rec, expectedMessageSubstring)
	}
}
