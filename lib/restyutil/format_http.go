package restyutil

import (
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"

	"github.com/go-resty/resty/v2"
)

func formatHeaders(headers http.Header) string {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	lines := []string{}
	for _, k := range keys {
		for _, v := range headers[k] {
			lines = append(lines, fmt.Sprintf("%s: %s", k, v))
		}
	}
	return strings.Join(lines, "\n")
}

func formatRequestBody(req *http.Request) string {
	if req == nil || req.GetBody == nil {
		return "<NO BODY AVAILABLE>"
	}
	body, err := req.GetBody()
	if err != nil {
		return fmt.Sprintf("failed to get request body: %s", err.Error())
	}
	readBody, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("failed to read request body: %s", err.Error())
	}
	return string(readBody)
}

func formatHttpRequest(req *resty.Request) string {
	return fmt.Sprintf(
		"---- REQUEST ----\n\n%s %s\n\n%s\n\n%s",
		req.Method, req.URL,
		formatHeaders(req.Header),
		formatRequestBody(req.RawRequest),
	)
}

func formatHttpMessage(res *resty.Response) string {
	return fmt.Sprintf(
		"%s\n\n---- RESPONSE ----\n\n%s\n\n%s\n\n%s",
		formatHttpRequest(res.Request),
		res.Status(),
		formatHeaders(res.Header()),
		res.String(),
	)
}
