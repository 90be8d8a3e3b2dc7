package api

import (
	"fmt"
	"net/http"

	"github.com/tidwall/gjson"
)

// Convention names accepted by ParseConvention.
const (
	ConventionStatus = "status"
	ConventionCode   = "code"
)

// Convention decides whether a backend response means success and where
// its payload lives. The backend's convention is not self-describing, so
// callers choose one explicitly.
type Convention interface {
	Name() string
	Succeeded(resp *Response) bool
	Payload(resp *Response) gjson.Result
}

// StatusConvention treats HTTP 200 with a non-null "data" field as success.
type StatusConvention struct{}

func (StatusConvention) Name() string { return ConventionStatus }

func (StatusConvention) Succeeded(resp *Response) bool {
	return resp != nil && resp.StatusCode == http.StatusOK && present(resp.JSON().Get("data"))
}

func (StatusConvention) Payload(resp *Response) gjson.Result {
	return resp.JSON().Get("data")
}

// CodeConvention treats a numeric "code" of 0 with a non-null "data" field
// as success, whatever the HTTP status.
type CodeConvention struct{}

func (CodeConvention) Name() string { return ConventionCode }

func (CodeConvention) Succeeded(resp *Response) bool {
	if resp == nil {
		return false
	}
	body := resp.JSON()
	code := body.Get("code")
	return code.Type == gjson.Number && code.Num == 0 && present(body.Get("data"))
}

func (CodeConvention) Payload(resp *Response) gjson.Result {
	return resp.JSON().Get("data")
}

// ParseConvention returns the convention called name.
func ParseConvention(name string) (Convention, error) {
	switch name {
	case ConventionStatus:
		return StatusConvention{}, nil
	case ConventionCode:
		return CodeConvention{}, nil
	default:
		return nil, fmt.Errorf("unknown response convention %q (want %q or %q)", name, ConventionStatus, ConventionCode)
	}
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}
