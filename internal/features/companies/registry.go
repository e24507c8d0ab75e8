// registry.go is the HTTP client for the company
// registry. Every call is throttled, bounded by a timeout and guarded by
// a circuit breaker so a slow registry never stalls the admin panel.

package companies

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"pixelwerk.nl/backoffice/internal/common"
)

const maxResults = 10

// errCallerGone marks a lookup abandoned by the caller's own context; it
// says nothing about the registry's health.
var errCallerGone = errors.New("caller gave up")

// RegistryConfig configures Registry.
type RegistryConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// RPS is the client-side request rate towards the registry.
	RPS float64
}

// Registry searches the company registry.
type Registry struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
}

// NewRegistry creates the registry client. A nil client uses a default one.
func NewRegistry(cfg RegistryConfig, client *http.Client) *Registry {
	if client == nil {
		client = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "company-registry",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, errCallerGone)
		},
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(log.Fields{
				"component": "companies",
				"breaker":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &Registry{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		timeout: cfg.Timeout,
		client:  client,
		limiter: rate.NewLimiter(rate.Limit(cfg.RPS), int(cfg.RPS)+1),
		breaker: breaker,
	}
}

// Enabled reports whether an API key is configured.
func (r *Registry) Enabled() bool {
	return r.apiKey != ""
}

// Search finds companies by (part of) their name. Timeouts, transport
// errors, non-2xx answers and an open breaker all become
// common.ErrLookupUnavailable; a 404 from the registry means no hits.
func (r *Registry) Search(ctx context.Context, name string) ([]Company, error) {
	if !r.Enabled() {
		return nil, common.ErrFeatureDisabled
	}

	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	if err := r.limiter.Wait(callCtx); err != nil {
		return nil, fmt.Errorf("registry throttle: %w", common.ErrLookupUnavailable)
	}

	res, err := r.breaker.Execute(func() (interface{}, error) {
		companies, err := r.search(callCtx, name)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", errCallerGone, ctx.Err())
		}
		return companies, err
	})
	if err != nil {
		if errors.Is(err, errCallerGone) {
			return nil, fmt.Errorf("registry: %v: %w", err, common.ErrLookupUnavailable)
		}
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("registry breaker: %w", common.ErrLookupUnavailable)
		}
		log.WithFields(log.Fields{"component": "companies", "query": name}).WithError(err).Warn("Registry lookup failed")
		return nil, fmt.Errorf("registry: %v: %w", err, common.ErrLookupUnavailable)
	}
	return res.([]Company), nil
}

func (r *Registry) search(ctx context.Context, name string) ([]Company, error) {
	u := r.baseURL + "/zoeken?" + url.Values{"naam": {name}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", r.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return []Company{}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var body searchResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	out := make([]Company, 0, len(body.Results))
	for _, it := range body.Results {
		if len(out) == maxResults {
			break
		}
		a := it.Address.Domestic
		c := Company{
			KvKNumber: it.KvKNumber,
			Name:      it.Name,
			Type:      it.Type,
			Street:    a.Street,
			Postcode:  a.Postcode,
			City:      a.City,
		}
		if a.HouseNumber > 0 {
			c.HouseNumber = strconv.Itoa(a.HouseNumber)
		}
		out = append(out, c)
	}
	return out, nil
}
