package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Data-to-Insight-Center/dcs-code-sub004/internal/domain"
)

// RequestSpec describes an outbound request. At most one of JSON and Body is used.
type RequestSpec struct {
	Method  string
	URL     string
	Query   url.Values
	Headers map[string]string

	// JSON is marshalled as the body with Content-Type application/json.
	JSON any
	// Body is sent as-is with ContentType.
	Body        io.Reader
	ContentType string
}

// BuildRequest builds an HTTP request from rs.
func BuildRequest(ctx context.Context, rs RequestSpec) (*http.Request, error) {
	if strings.TrimSpace(rs.URL) == "" {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidArgument,
			Err:  fmt.Errorf("request url is required: %w", domain.ErrInvalidArgument),
		}
	}

	method := rs.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	contentType := ""
	switch {
	case rs.JSON != nil:
		payload, err := json.Marshal(rs.JSON)
		if err != nil {
			return nil, &domain.OpError{
				Op:   "httpclient.build",
				Kind: domain.KindInvalidArgument,
				Err:  err,
			}
		}
		body = bytes.NewReader(payload)
		contentType = "application/json"
	case rs.Body != nil:
		body = rs.Body
		contentType = rs.ContentType
	}

	u := rs.URL
	if len(rs.Query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + rs.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "httpclient.build",
			Kind: domain.KindInvalidArgument,
			Err:  err,
		}
	}

	for k, v := range rs.Headers {
		req.Header.Set(k, v)
	}
	if contentType != "" && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", contentType)
	}

	return req, nil
}
