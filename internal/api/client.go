package api

import (
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"

	"github.com/zhaoxiaowang1993/ai-doc-review/pkg/shared/apierr"
)

// Client wraps the document review backend API. All mutating calls return
// the server's canonical entity; callers replace local state with it and
// never apply locally computed guesses.
type Client struct {
	httpc  *resty.Client
	logger hclog.Logger
}

// New creates a Client on top of a configured resty client. The resty client
// is expected to carry the backend base URL, auth and timeouts already (see
// pkg/shared/httpclient).
func New(httpc *resty.Client, baseURL string, logger hclog.Logger) *Client {
	httpc.SetBaseURL(baseURL)

	return &Client{
		httpc:  httpc,
		logger: logger,
	}
}

// checkResponse classifies a non-2xx response into a retriable or fatal API
// error with the best-effort message from the body.
func checkResponse(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}
	return apierr.FromResponse(resp.StatusCode(), resp.Status(), resp.Body())
}
