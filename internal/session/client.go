// Package session implements the platform session client: interactive
// login through a headless browser and item fetches over HTTP with the
// harvested cookies.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/voidworks/clipcrawl/internal/video"
)

const (
	defaultIndexURL     = "https://www.douyin.com"
	defaultDetailURL    = "https://www.douyin.com/aweme/v1/web/aweme/detail/"
	defaultUserAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/109.0.0.0 Safari/537.36"
	defaultLoginCookie  = "LOGIN_STATUS"
	defaultHTTPTimeout  = 15 * time.Second
	defaultLoginTimeout = 2 * time.Minute
	loginPollInterval   = 2 * time.Second
)

// Config parameterizes the session client.
type Config struct {
	IndexURL     string
	DetailURL    string
	UserAgent    string
	Headless     bool
	UserDataDir  string
	LoginCookie  string
	LoginTimeout time.Duration
	HTTPTimeout  time.Duration
	Proxy        *video.ProxyIdentity
}

// Client implements video.SessionClient. The browser is started only
// when an interactive login mode requires it.
type Client struct {
	cfg    Config
	logger *zap.Logger
	http   *http.Client

	mu sync.Mutex
	br *browser
}

// New builds a Client, routing HTTP traffic through the configured
// proxy when one is set.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.IndexURL == "" {
		cfg.IndexURL = defaultIndexURL
	}
	if cfg.DetailURL == "" {
		cfg.DetailURL = defaultDetailURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.LoginCookie == "" {
		cfg.LoginCookie = defaultLoginCookie
	}
	if cfg.LoginTimeout <= 0 {
		cfg.LoginTimeout = defaultLoginTimeout
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = defaultHTTPTimeout
	}

	transport := &http.Transport{}
	if cfg.Proxy != nil {
		proxyURL, err := url.Parse(cfg.Proxy.URL())
		if err != nil {
			return nil, fmt.Errorf("parse proxy url: %w", err)
		}
		transport.Proxy = http.ProxyURL(proxyURL)
	}
	return &Client{
		cfg:    cfg,
		logger: logger,
		http: &http.Client{
			Timeout:   cfg.HTTPTimeout,
			Transport: transport,
		},
	}, nil
}

// IsAlive reports whether the session still carries a valid login.
func (c *Client) IsAlive(_ context.Context, session video.Session) bool {
	if len(session.Cookies) == 0 {
		return false
	}
	return session.Cookies[c.cfg.LoginCookie] == "1"
}

// Login obtains an authenticated session. Cookie mode parses the
// provided cookie string directly; qrcode and phone modes open the
// platform page in the browser and wait for the login cookie to
// appear while the user completes the flow.
func (c *Client) Login(ctx context.Context, mode video.LoginMode, cookie string) (video.Session, error) {
	switch mode {
	case video.LoginCookie:
		return c.loginWithCookie(cookie)
	case video.LoginQRCode, video.LoginPhone:
		return c.loginInteractive(ctx)
	default:
		return video.Session{}, fmt.Errorf("unsupported login mode %q: %w", mode, video.ErrSessionUnavailable)
	}
}

func (c *Client) loginWithCookie(cookie string) (video.Session, error) {
	cookies := parseCookieString(cookie)
	if len(cookies) == 0 {
		return video.Session{}, fmt.Errorf("cookie login needs a non-empty cookie string: %w", video.ErrSessionUnavailable)
	}
	// Keep an already-running browser in sync so in-page requests
	// authenticate with the same identity.
	c.mu.Lock()
	if c.br != nil {
		if err := c.br.setCookies(cookieDomain(c.cfg.IndexURL), cookies); err != nil {
			c.logger.Warn("seed browser cookies failed", zap.Error(err))
		}
	}
	c.mu.Unlock()
	return video.Session{
		Cookies:   cookies,
		UserAgent: c.cfg.UserAgent,
		IssuedAt:  time.Now().UTC(),
	}, nil
}

func (c *Client) loginInteractive(ctx context.Context) (video.Session, error) {
	br, err := c.ensureBrowser()
	if err != nil {
		return video.Session{}, fmt.Errorf("start browser: %w", errors.Join(video.ErrSessionUnavailable, err))
	}
	if err := br.navigate(c.cfg.IndexURL); err != nil {
		return video.Session{}, errors.Join(video.ErrSessionUnavailable, err)
	}
	c.logger.Info("waiting for interactive login",
		zap.String("url", c.cfg.IndexURL),
		zap.Duration("timeout", c.cfg.LoginTimeout),
	)

	deadline := time.Now().Add(c.cfg.LoginTimeout)
	for {
		cookies, err := br.cookies()
		if err == nil && cookies[c.cfg.LoginCookie] == "1" {
			c.logger.Info("login confirmed", zap.Int("cookies", len(cookies)))
			return video.Session{
				Cookies:   cookies,
				UserAgent: c.cfg.UserAgent,
				IssuedAt:  time.Now().UTC(),
			}, nil
		}
		if time.Now().After(deadline) {
			return video.Session{}, fmt.Errorf("login not confirmed within %s: %w",
				c.cfg.LoginTimeout, video.ErrSessionUnavailable)
		}
		select {
		case <-ctx.Done():
			return video.Session{}, errors.Join(video.ErrSessionUnavailable, ctx.Err())
		case <-time.After(loginPollInterval):
		}
	}
}

// FetchItem retrieves one raw item record through the detail endpoint.
// Network and protocol problems surface as transport failures; a
// response without a detail payload returns an empty RawItem so the
// caller can classify it.
func (c *Client) FetchItem(ctx context.Context, session video.Session, id video.ItemID) (video.RawItem, error) {
	endpoint := fmt.Sprintf("%s?aweme_id=%s", c.cfg.DetailURL, url.QueryEscape(string(id)))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build detail request: %w", err)
	}
	req.Header.Set("User-Agent", session.UserAgent)
	req.Header.Set("Cookie", session.CookieHeader())
	req.Header.Set("Referer", c.cfg.IndexURL+"/")
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch item %s: %w", id, errors.Join(video.ErrTransportFailure, err))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.Warn("close response body failed", zap.Error(cerr))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch item %s: status %d: %w",
			id, resp.StatusCode, video.ErrTransportFailure)
	}

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode item %s: %w", id, errors.Join(video.ErrTransportFailure, err))
	}
	detail, ok := body["aweme_detail"].(map[string]any)
	if !ok {
		return video.RawItem{}, nil
	}
	return video.RawItem(detail), nil
}

// Close shuts the browser down if one was started.
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.br != nil {
		c.br.close()
		c.br = nil
	}
}

func (c *Client) ensureBrowser() (*browser, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.br != nil {
		return c.br, nil
	}
	br, err := newBrowser(c.cfg)
	if err != nil {
		return nil, err
	}
	c.br = br
	return br, nil
}

func cookieDomain(indexURL string) string {
	u, err := url.Parse(indexURL)
	if err != nil || u.Hostname() == "" {
		return ""
	}
	return "." + strings.TrimPrefix(u.Hostname(), "www.")
}

func parseCookieString(cookie string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(cookie, ";") {
		name, value, found := strings.Cut(strings.TrimSpace(part), "=")
		if !found || name == "" {
			continue
		}
		out[name] = value
	}
	return out
}
