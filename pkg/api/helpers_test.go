package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) error {
	t.Helper()
	return json.Unmarshal(rec.Body.Bytes(), v)
}
