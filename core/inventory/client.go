package inventory

import (
	"bytes"
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

	"ioc-sync/core/indicator"
	"ioc-sync/core/policy"
	"ioc-sync/core/prevalence"
	"ioc-sync/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	tokenPath      = "/oauth2/token"
	combinedPath   = "/iocs/combined/indicator/v1"
	entitiesPath   = "/iocs/entities/indicators/v1"
	deviceCount    = "/iocs/aggregates/indicators/device-count/v1"
	actionsPath    = "/iocs/queries/ioc-actions/v1"
	platformsPath  = "/iocs/queries/platforms/v1"
	hostGroupsPath = "/devices/combined/host-groups/v1"

	queryLimit = 200
)

// Client talks to the remote indicator inventory.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

var (
	_ reconcile.Store          = (*Client)(nil)
	_ prevalence.DeviceCounter = (*Client)(nil)
	_ policy.ActionLister      = (*Client)(nil)
	_ policy.PlatformLister    = (*Client)(nil)
	_ policy.HostGroupResolver = (*Client)(nil)
)

// New creates a client that authenticates with the client-credentials grant.
// Tokens are fetched lazily and refreshed before expiry.
func New(cfg Config, log *zap.Logger) (*Client, error) {
	if !cfg.HasCredentials() {
		return nil, fmt.Errorf("inventory: missing client credentials")
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	cc := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     base + tokenPath,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: timeout})
	httpClient := cc.Client(ctx)
	httpClient.Timeout = timeout

	return &Client{baseURL: base, http: httpClient, log: log}, nil
}

// envelope is the common response shape.
type envelope struct {
	Meta struct {
		Pagination struct {
			After string `json:"after"`
			Total int    `json:"total"`
		} `json:"pagination"`
	} `json:"meta"`
	Resources json.RawMessage `json:"resources"`
	Errors    []apiError      `json:"errors"`
}

type apiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	ID      string `json:"id"`
}

// StatusError is returned for failed requests.
type StatusError struct {
	Method string
	Path   string
	Status int
	Errors []string
}

func (e *StatusError) Error() string {
	if len(e.Errors) > 0 {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, strings.Join(e.Errors, "; "))
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// do sends a request and decodes the envelope. When partial is set, a failed
// status carrying an errors array is returned without an error.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, partial bool) (*envelope, error) {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("create %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("inventory request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil && err != io.EOF {
		if resp.StatusCode >= http.StatusBadRequest {
			return nil, &StatusError{Method: method, Path: path, Status: resp.StatusCode}
		}
		return nil, fmt.Errorf("decode %s %s: %w", method, path, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		if partial && len(env.Errors) > 0 {
			return &env, nil
		}
		se := &StatusError{Method: method, Path: path, Status: resp.StatusCode}
		for _, e := range env.Errors {
			se.Errors = append(se.Errors, fmt.Sprintf("%d %s", e.Code, e.Message))
		}
		return nil, se
	}
	return &env, nil
}

// ListIndicators returns one page of indicators matching filter.
func (c *Client) ListIndicators(ctx context.Context, filter, after string, limit int) (reconcile.Page, error) {
	q := url.Values{}
	q.Set("filter", filter)
	q.Set("limit", strconv.Itoa(limit))
	if after != "" {
		q.Set("after", after)
	}
	env, err := c.do(ctx, http.MethodGet, combinedPath, q, nil, false)
	if err != nil {
		return reconcile.Page{}, err
	}
	var records []reconcile.RemoteRecord
	if err := decodeResources(env.Resources, &records); err != nil {
		return reconcile.Page{}, fmt.Errorf("decode indicators: %w", err)
	}
	return reconcile.Page{Records: records, After: env.Meta.Pagination.After}, nil
}

type mutationBody struct {
	Comment    string           `json:"comment,omitempty"`
	Indicators []map[string]any `json:"indicators"`
}

func mutationQuery(opts reconcile.MutationOptions) url.Values {
	q := url.Values{}
	q.Set("retrodetects", strconv.FormatBool(opts.Retrodetects))
	q.Set("ignore_warnings", strconv.FormatBool(opts.IgnoreWarnings))
	return q
}

func payloads(records []indicator.Record) []map[string]any {
	out := make([]map[string]any, len(records))
	for i, r := range records {
		out[i] = r.Payload()
	}
	return out
}

// CreateIndicators creates a batch of indicators.
func (c *Client) CreateIndicators(ctx context.Context, records []indicator.Record, opts reconcile.MutationOptions) (reconcile.BatchResponse, error) {
	body := mutationBody{Comment: opts.Comment, Indicators: payloads(records)}
	env, err := c.do(ctx, http.MethodPost, entitiesPath, mutationQuery(opts), body, true)
	if err != nil {
		return reconcile.BatchResponse{}, err
	}
	return batchResponse(env), nil
}

// UpdateIndicators updates a batch of indicators; each record carries its id.
func (c *Client) UpdateIndicators(ctx context.Context, records []indicator.Record, opts reconcile.MutationOptions) (reconcile.BatchResponse, error) {
	body := mutationBody{Comment: opts.Comment, Indicators: payloads(records)}
	env, err := c.do(ctx, http.MethodPatch, entitiesPath, mutationQuery(opts), body, true)
	if err != nil {
		return reconcile.BatchResponse{}, err
	}
	return batchResponse(env), nil
}

// DeleteIndicators deletes a batch of indicators by id.
func (c *Client) DeleteIndicators(ctx context.Context, ids []string) (reconcile.BatchResponse, error) {
	q := url.Values{}
	for _, id := range ids {
		q.Add("ids", id)
	}
	env, err := c.do(ctx, http.MethodDelete, entitiesPath, q, nil, true)
	if err != nil {
		return reconcile.BatchResponse{}, err
	}
	return batchResponse(env), nil
}

func batchResponse(env *envelope) reconcile.BatchResponse {
	var resp reconcile.BatchResponse
	for _, e := range env.Errors {
		resp.Errors = append(resp.Errors, reconcile.ItemError{Code: e.Code, Message: e.Message, ID: e.ID})
	}
	return resp
}

// CountDevices returns the number of devices that observed an indicator.
func (c *Client) CountDevices(ctx context.Context, kind, value string) (int, error) {
	q := url.Values{}
	q.Set("type", kind)
	q.Set("value", value)
	env, err := c.do(ctx, http.MethodGet, deviceCount, q, nil, false)
	if err != nil {
		var se *StatusError
		// no sightings is reported as not found
		if errors.As(err, &se) && se.Status == http.StatusNotFound {
			return 0, nil
		}
		return 0, err
	}
	return prevalence.ExtractDeviceCount(env.Resources), nil
}

// ListActions returns the action names accepted on indicators.
func (c *Client) ListActions(ctx context.Context) ([]string, error) {
	return c.queryNames(ctx, actionsPath)
}

// ListPlatforms returns the platform names accepted on indicators.
func (c *Client) ListPlatforms(ctx context.Context) ([]string, error) {
	return c.queryNames(ctx, platformsPath)
}

func (c *Client) queryNames(ctx context.Context, path string) ([]string, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(queryLimit))
	env, err := c.do(ctx, http.MethodGet, path, q, nil, false)
	if err != nil {
		return nil, err
	}
	var names []string
	if err := decodeResources(env.Resources, &names); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return names, nil
}

// FindHostGroups looks up host groups by exact name.
func (c *Client) FindHostGroups(ctx context.Context, names []string) ([]policy.HostGroup, error) {
	if len(names) == 0 {
		return nil, nil
	}
	q := url.Values{}
	q.Set("filter", policy.HostGroupFilter(names))
	env, err := c.do(ctx, http.MethodGet, hostGroupsPath, q, nil, false)
	if err != nil {
		return nil, err
	}
	var groups []policy.HostGroup
	if err := decodeResources(env.Resources, &groups); err != nil {
		return nil, fmt.Errorf("decode host groups: %w", err)
	}
	return groups, nil
}

func decodeResources(raw json.RawMessage, v any) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	return json.Unmarshal(raw, v)
}
