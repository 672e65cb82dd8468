package test

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"
)

// ValidateErrMessage compares an expected error message against
// the message embedded in a JSON error response body.
func ValidateErrMessage(expectedMsg string, body *bytes.Buffer) error {
	if expectedMsg == "" {
		return nil
	}

	var errResponse map[string]map[string]string
	err := json.NewDecoder(body).Decode(&errResponse)
	if err != nil {
		return err
	}

	if errResponse["error"]["message"] != expectedMsg {
		return errors.Errorf("incorrect error response, want '%s' got '%s'",
			expectedMsg, errResponse["error"]["message"])
	}

	return nil
}
