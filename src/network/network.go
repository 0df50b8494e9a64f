package network

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"quake-observer/src/helpers"
	"quake-observer/src/logger"
	"quake-observer/src/models"
)

const defaultUserAgent = "quake-observer/1.0"

// AsyncNetworkManager performs backend GETs. It never retries: a failed request
// is reported once and the next filter change or manual retry issues a new one.
type AsyncNetworkManager struct {
	Config *models.MConfig
	Client *http.Client
	Logger *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAsyncNetworkManager(cfg *models.MConfig, log *logger.Logger) (*AsyncNetworkManager, error) {
	if log == nil {
		log = logger.NewLogger(cfg, "Network")
	}
	nm := &AsyncNetworkManager{
		Config: cfg,
		Logger: log,
	}
	client, err := nm.createClient()
	if err != nil {
		return nil, err
	}
	nm.Client = client
	return nm, nil
}

// -----------------------------------------------------------------------------

func (nm *AsyncNetworkManager) createClient() (*http.Client, error) {
	transport := http.DefaultTransport.(*http.Transport).Clone()

	if nm.Config.Backend.Proxy != "" {
		proxyURL, err := url.Parse(nm.Config.Backend.Proxy)
		if err != nil {
			return nil, helpers.NewConfigurationError("invalid backend proxy %q: %v", nm.Config.Backend.Proxy, err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}

	return &http.Client{
		Transport: transport,
		Timeout:   time.Duration(nm.Config.Backend.RequestTimeout) * time.Second, // 0 = none
	}, nil
}

// -----------------------------------------------------------------------------

// Get performs a single GET request of urlStr with rawQuery appended.
func (nm *AsyncNetworkManager) Get(ctx context.Context, urlStr string, rawQuery string) ([]byte, error) {
	reqURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, helpers.NewNetworkError("GET "+urlStr, err)
	}
	reqURL.RawQuery = rawQuery
	finalURL := reqURL.String()
	op := "GET " + reqURL.Path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return nil, helpers.NewNetworkError(op, err)
	}

	ua := nm.Config.Backend.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	req.Header.Set("User-Agent", ua)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := nm.Client.Do(req)
	if err != nil {
		nm.Logger.Debug("Request %s failed after %v: %v", finalURL, time.Since(start), err)
		return nil, helpers.NewNetworkError(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		io.Copy(io.Discard, resp.Body)
		nm.Logger.Debug("Request %s returned status %d", finalURL, resp.StatusCode)
		return nil, helpers.NewHTTPError(op, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, helpers.NewNetworkError(op, fmt.Errorf("reading body: %w", err))
	}

	nm.Logger.Debug("Request %s ok (%d bytes, %v)", finalURL, len(body), time.Since(start))
	return body, nil
}
