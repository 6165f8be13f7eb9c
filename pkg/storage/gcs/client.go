package gcs

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sony/gobreaker/v2"

	"github.com/angelmondragon/freightdesk-backend/pkg/config"
	"github.com/angelmondragon/freightdesk-backend/pkg/logger"
)

const (
	tokenEndpoint  = "https://oauth2.googleapis.com/token"
	scope          = "https://www.googleapis.com/auth/devstorage.read_write"
	pingTimeout    = 5 * time.Second
	metadataToken  = "http://metadata.google.internal/computeMetadata/v1/instance/service-accounts/default/token"
	defaultAPIBase = "https://storage.googleapis.com"
)

type Client struct {
	httpClient    *http.Client
	defaultBucket string
	publicBase    string
	apiBase       string
	tokenSource   *tokenSource
	breaker       *gobreaker.CircuitBreaker[*http.Response]
}

// errUpstream marks a 5xx answer as a breaker failure. The response itself is
// still handed back to the caller.
var errUpstream = errors.New("gcs upstream error")

// ObjectInfo describes a stored object.
type ObjectInfo struct {
	Bucket      string
	Key         string
	ContentType string
	Size        int64
	PublicURL   string
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func closeBody(ctx context.Context, logg *logger.Logger, body io.Closer, msg string) {
	if body == nil {
		return
	}
	if err := body.Close(); err != nil && logg != nil {
		logg.Warn(ctx, msg)
	}
}

func NewClient(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Client, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	httpClient := &http.Client{Timeout: 10 * time.Second}

	var ts *tokenSource
	var err error
	switch {
	case gcp.CredentialsJSON != "":
		ts, err = newServiceAccountTokenSource(httpClient, gcp.CredentialsJSON)
	case gcp.ApplicationCredentials != "":
		bytes, readErr := os.ReadFile(gcp.ApplicationCredentials)
		if readErr != nil {
			return nil, fmt.Errorf("reading credentials file: %w", readErr)
		}
		ts, err = newServiceAccountTokenSource(httpClient, string(bytes))
	default:
		ts = newMetadataTokenSource(httpClient)
	}
	if err != nil {
		return nil, err
	}

	client := &Client{
		httpClient:    httpClient,
		defaultBucket: cfg.BucketName,
		publicBase:    cfg.PublicBaseURL,
		apiBase:       defaultAPIBase,
		tokenSource:   ts,
		breaker:       newBreaker("gcs"),
	}

	if err := client.Ping(ctx); err != nil {
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(ctx, "gcs client initialized")
	}

	return client, nil
}

func (c *Client) DefaultBucket() string {
	if c == nil {
		return ""
	}
	return c.defaultBucket
}

func (c *Client) Close() error {
	return nil
}

func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if c.defaultBucket == "" {
		return errors.New("gcs bucket not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	// Prefer object-level check (requires storage.objects.list)
	u := fmt.Sprintf(
		"%s/storage/v1/b/%s/o?maxResults=1",
		c.baseURL(),
		url.PathEscape(c.defaultBucket),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return statusError("gcs object check", resp)
	}

	return nil
}

// UploadObject streams body into bucket/key using the JSON API simple upload.
func (c *Client) UploadObject(ctx context.Context, bucket, key, contentType string, body io.Reader, size int64) (ObjectInfo, error) {
	if c == nil || c.tokenSource == nil {
		return ObjectInfo{}, errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if key == "" {
		return ObjectInfo{}, errors.New("object key is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return ObjectInfo{}, err
	}

	q := url.Values{}
	q.Set("uploadType", "media")
	q.Set("name", key)
	u := fmt.Sprintf("%s/upload/storage/v1/b/%s/o?%s", c.baseURL(), url.PathEscape(bucket), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, body)
	if err != nil {
		return ObjectInfo{}, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", contentType)
	if size > 0 {
		req.ContentLength = size
	}

	resp, err := c.do(req)
	if err != nil {
		return ObjectInfo{}, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return ObjectInfo{}, statusError("gcs upload", resp)
	}

	var meta struct {
		Name        string `json:"name"`
		ContentType string `json:"contentType"`
		Size        string `json:"size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return ObjectInfo{}, fmt.Errorf("decoding upload response: %w", err)
	}
	if meta.Name == "" {
		meta.Name = key
	}

	return ObjectInfo{
		Bucket:      bucket,
		Key:         meta.Name,
		ContentType: contentType,
		Size:        size,
		PublicURL:   c.PublicURL(bucket, meta.Name),
	}, nil
}

// DeleteObject removes bucket/key. A missing object counts as deleted.
func (c *Client) DeleteObject(ctx context.Context, bucket, key string) error {
	if c == nil || c.tokenSource == nil {
		return errors.New("gcs client not initialized")
	}
	if bucket == "" {
		bucket = c.defaultBucket
	}
	if key == "" {
		return errors.New("object key is required")
	}

	token, err := c.tokenSource.Token(ctx)
	if err != nil {
		return err
	}

	u := fmt.Sprintf("%s/storage/v1/b/%s/o/%s", c.baseURL(), url.PathEscape(bucket), url.PathEscape(key))
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent, http.StatusNotFound:
		return nil
	default:
		return statusError("gcs delete", resp)
	}
}

// PublicURL returns the publicly resolvable URL for an object.
func (c *Client) PublicURL(bucket, key string) string {
	base := defaultAPIBase
	if c != nil && c.publicBase != "" {
		base = c.publicBase
	}
	if bucket == "" && c != nil {
		bucket = c.defaultBucket
	}
	return fmt.Sprintf("%s/%s/%s", strings.TrimRight(base, "/"), bucket, strings.TrimLeft(key, "/"))
}

// newBreaker opens after three requests once six in ten of them failed, and
// probes again after thirty seconds.
func newBreaker(name string) *gobreaker.CircuitBreaker[*http.Response] {
	var st gobreaker.Settings
	st.Name = name
	st.Timeout = 30 * time.Second
	st.ReadyToTrip = func(counts gobreaker.Counts) bool {
		failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
		return counts.Requests >= 3 && failureRatio >= 0.6
	}
	return gobreaker.NewCircuitBreaker[*http.Response](st)
}

// do sends req through the breaker. Transport errors and 5xx answers count as
// failures; an open breaker fails fast without touching the network.
func (c *Client) do(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	resp, err := c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errUpstream
		}
		return resp, nil
	})
	if errors.Is(err, errUpstream) && resp != nil {
		return resp, nil
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("gcs unavailable: %w", err)
	}
	return resp, err
}

func (c *Client) baseURL() string {
	if c.apiBase == "" {
		return defaultAPIBase
	}
	return strings.TrimRight(c.apiBase, "/")
}

func statusError(op string, resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if len(b) > 0 {
		return fmt.Errorf("%s failed: %s: %s", op, resp.Status, strings.TrimSpace(string(b)))
	}
	return fmt.Errorf("%s failed: %s", op, resp.Status)
}

type tokenSource struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	fetch  func(context.Context) (string, time.Time, error)
}

func (t *tokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" && time.Until(t.expiry) > time.Minute {
		return t.token, nil
	}

	token, expiry, err := t.fetch(ctx)
	if err != nil {
		return "", err
	}
	t.token = token
	t.expiry = expiry
	return token, nil
}

func newServiceAccountTokenSource(client *http.Client, jsonCreds string) (*tokenSource, error) {
	var creds struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
		TokenURI    string `json:"token_uri"`
	}
	if err := json.Unmarshal([]byte(jsonCreds), &creds); err != nil {
		return nil, fmt.Errorf("parsing service account credentials: %w", err)
	}
	if creds.ClientEmail == "" || creds.PrivateKey == "" {
		return nil, errors.New("invalid service account credentials")
	}
	tokenURI := creds.TokenURI
	if tokenURI == "" {
		tokenURI = tokenEndpoint
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(creds.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parsing service account key: %w", err)
	}

	return &tokenSource{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			return fetchServiceAccountToken(ctx, client, creds.ClientEmail, priv, tokenURI)
		},
	}, nil
}

func newMetadataTokenSource(client *http.Client) *tokenSource {
	return &tokenSource{
		fetch: func(ctx context.Context) (string, time.Time, error) {
			return fetchMetadataToken(ctx, client)
		},
	}
}

func fetchServiceAccountToken(ctx context.Context, client *http.Client, email string, key *rsa.PrivateKey, tokenURI string) (string, time.Time, error) {
	now := time.Now()
	assertion, err := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   email,
		"scope": scope,
		"aud":   tokenURI,
		"exp":   now.Add(time.Hour).Unix(),
		"iat":   now.Unix(),
	}).SignedString(key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token assertion: %w", err)
	}
	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() { closeBody(ctx, nil, resp.Body, "gcs: closing response body failed") }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, err
	}

	return tokenResp.AccessToken, time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second), nil
}

func fetchMetadataToken(ctx context.Context, client *http.Client) (string, time.Time, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, metadataToken, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	req.Header.Set("Metadata-Flavor", "Google")
	resp, err := client.Do(req)
	if err != nil {
		return "", time.Time{}, err
	}

	defer func() { closeBody(ctx, nil, resp.Body, "gcs: closing response body failed") }()

	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("metadata token request returned %s", resp.Status)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", time.Time{}, err
	}

	return tokenResp.AccessToken, time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second), nil
}
