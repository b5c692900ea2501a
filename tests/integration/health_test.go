//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestHealthEndpoints(t *testing.T) {
	for _, path := range []string{"/livez", "/readyz"} {
		t.Run(path, func(t *testing.T) {
			resp := do(t, http.MethodGet, path, nil, "")
			defer resp.Body.Close()
			wantStatus(t, resp, http.StatusOK)

			health := decodeJSON[healthResponse](t, resp)
			if health.Status != "ok" {
				t.Errorf("status: got %q, want ok", health.Status)
			}
		})
	}
}
