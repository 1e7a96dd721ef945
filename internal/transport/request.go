package transport

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/agentstation/accesssync/pkg/errors"
	"github.com/agentstation/accesssync/pkg/logging"
)

// maxErrorBody caps how much of an error response is kept in the message.
const maxErrorBody = 512

// decode reads a JSON response body into target. Non-2xx statuses become
// *errors.APIError.
func decode(resp *http.Response, directory, endpoint string, target any) error {
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logging.Default().Warn().Err(err).Str("endpoint", endpoint).Msg("failed to close response body")
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.WrapIO("read", "response body", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &errors.APIError{
			Directory:  directory,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body),
		}
	}

	if err := json.Unmarshal(body, target); err != nil {
		return errors.WrapParse("json", endpoint, err)
	}
	return nil
}

// errorMessage extracts the message of an OData error body, falling back to
// the truncated body text.
func errorMessage(body []byte) string {
	var odata struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &odata); err == nil && odata.Error.Message != "" {
		if odata.Error.Code != "" {
			return odata.Error.Code + ": " + odata.Error.Message
		}
		return odata.Error.Message
	}
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return msg
}
