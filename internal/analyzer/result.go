package analyzer

import (
	"bytes"
	"encoding/json"
)

type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
	ActionHold Action = "HOLD"
)

// NoSignalMessage is reported with HOLD.
const NoSignalMessage = "無顯著訊號"

// Result is the verdict printed for one code. A failed result serializes
// only its error and success fields.
type Result struct {
	Success bool     `json:"success"`
	Code    string   `json:"code"`
	Name    string   `json:"name"`
	Price   *float64 `json:"price"`
	Message string   `json:"message"`
	Action  Action   `json:"action"`
	Error   string   `json:"error,omitempty"`
}

type failurePayload struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

// Failure builds an unsuccessful result.
func Failure(msg string) *Result {
	return &Result{Error: msg}
}

func (r Result) MarshalJSON() ([]byte, error) {
	if !r.Success {
		return marshalNoEscape(failurePayload{Error: r.Error})
	}
	type plain Result
	return marshalNoEscape(plain(r))
}

// marshalNoEscape keeps <, > and & readable in reasons and stack traces.
func marshalNoEscape(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
