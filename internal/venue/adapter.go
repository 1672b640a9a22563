// Package venue implements the venue adapters that fetch raw market data
// from external prediction-market APIs and normalize it into the canonical
// domain.Market shape. Each venue has its own JSON schema, price scale, and
// liquidity units; everything downstream of this package sees one shape.
package venue

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/arbradar/arbradar/internal/domain"
)

// Adapter is implemented once per venue. Adding a venue means adding an
// implementation, not branching on a venue name.
type Adapter interface {
	// Name returns the venue slug, e.g. "polymarket".
	Name() string

	// Initialize resolves (or creates) the venue's record and caches its ID.
	// It is idempotent; subsequent calls are no-ops.
	Initialize(ctx context.Context) (string, error)

	// FetchMarkets returns the venue's active markets in canonical form. It
	// never returns an error: network, timeout, non-2xx, and malformed-JSON
	// failures are logged and yield an empty slice for the cycle.
	FetchMarkets(ctx context.Context) []domain.Market
}

// doGet sends a GET request and returns the response body, mapping non-2xx
// statuses to errors.
func doGet(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, truncate(body, 256))
	}

	return body, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}

// flexFloat unmarshals from a JSON number or a numeric string. Venue APIs
// are inconsistent about this, and a missing or malformed field must default
// to zero rather than fail the whole payload.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexFloat(n)
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(strings.TrimSpace(str), 64)
	if err != nil {
		*f = 0
		return nil
	}
	*f = flexFloat(n)
	return nil
}

// flexBool unmarshals from a JSON bool or string ("true"/"false").
type flexBool bool

func (f *flexBool) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		*f = flexBool(b)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*f = flexBool(strings.EqualFold(s, "true") || s == "1")
	return nil
}
