package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/meeralabs/portal/internal/app/system/auth"
)

// NewRequest builds a request that already carries a signed-in session user,
// as if LoadSession had run. An empty token yields an anonymous request.
func NewRequest(method, target string, body io.Reader, token string) *http.Request {
	req := httptest.NewRequest(method, target, body)
	if token != "" {
		req = auth.WithTestUser(req, &auth.SessionUser{Token: token, Email: "ada@example.com"})
	}
	return req
}
