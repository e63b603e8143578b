package batch

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/adtoolkit/meta-ads-mcp/internal/meta"
)

// Result is the outcome of one item in a batch operation against the
// Graph API.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"` // "success" or "error"
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`

	// ErrorCode carries the Graph API error code when the failure came
	// from the API, so callers can distinguish throttling from bad input.
	ErrorCode int `json:"error_code,omitempty"`

	// FBTraceID is Meta's trace ID for the failed request, useful when
	// filing support tickets.
	FBTraceID string `json:"fbtrace_id,omitempty"`
}

// BatchResult aggregates the per-item results of a batch operation.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray parses a tool argument that may be a single ID, an
// array of IDs, or a JSON-encoded array of IDs. MCP clients are
// inconsistent about which form they send for multi-valued parameters.
func ParseStringOrArray(param interface{}, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		// Some clients serialize array arguments to a JSON string.
		if strings.HasPrefix(strings.TrimSpace(v), "[") {
			var decoded []string
			if err := json.Unmarshal([]byte(v), &decoded); err == nil {
				if len(decoded) == 0 {
					return nil, fmt.Errorf("%s cannot be empty", paramName)
				}
				for i, item := range decoded {
					if item == "" {
						return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
					}
				}
				return decoded, nil
			}
		}
		return []string{v}, nil
	case []interface{}:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		result := make([]string, 0, len(v))
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if str == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			result = append(result, str)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}
}

// ProcessBatch runs fn for each ID in order and collects per-item results.
// A failing item does not stop the batch; Graph API rate limiting is
// handled below this layer by the client's limiter and retries.
func ProcessBatch(ids []string, fn func(id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))

	for _, id := range ids {
		res, err := fn(id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}

	return results
}

// FormatResults renders batch results as an indented JSON summary.
func FormatResults(results []Result) string {
	br := BatchResult{
		Total:   len(results),
		Results: results,
	}

	for _, r := range results {
		if r.Status == "success" {
			br.Successful++
		} else {
			br.Failed++
		}
	}

	jsonBytes, _ := json.MarshalIndent(br, "", "  ")
	return string(jsonBytes)
}

// NewSuccessResult creates a success result for one batch item.
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: "success",
		Result: message,
	}
}

// NewErrorResult creates an error result for one batch item, surfacing the
// Graph API error code and trace ID when present.
func NewErrorResult(id string, err error) Result {
	r := Result{
		ID:     id,
		Status: "error",
		Error:  err.Error(),
	}
	if ge, ok := meta.AsGraphError(err); ok {
		r.ErrorCode = ge.Code
		r.FBTraceID = ge.FBTraceID
	}
	return r
}
