package analysis

import "encoding/json"

// Result is the normalized outcome of one analysis operation. Exactly one of
// Data or Error is populated; Data holds a JSON-compatible value (normally an
// object keyed by string).
type Result struct {
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

// OK wraps a normalized value in a success result.
func OK(v any) Result { return Result{Data: v} }

// Fail wraps an error in a uniform error result.
func Fail(err error) Result {
	if err == nil {
		return Result{}
	}
	return Result{Error: err.Error()}
}

// Failed reports whether the result carries an error marker.
func (r Result) Failed() bool { return r.Error != "" }

// DecodeStructured parses a text response that claims to be JSON. Parse
// failures come back as MalformedResponseError so callers can surface the
// reason instead of a fault.
func DecodeStructured(text string) (any, error) {
	var out any
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return nil, &MalformedResponseError{Err: err, Raw: text}
	}
	return out, nil
}

// Raw renders the result payload as a JSON string for persistence.
func (r Result) Raw() string {
	if r.Failed() {
		return r.Error
	}
	b, err := json.Marshal(r.Data)
	if err != nil {
		return ""
	}
	return string(b)
}
