package session

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"
)

// browser owns the headless Chrome contexts used for interactive
// login. It is created lazily; cookie-mode logins never need it.
type browser struct {
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

func newBrowser(cfg Config) (*browser, error) {
	opts := chromedp.DefaultExecAllocatorOptions[:]
	opts = append(opts,
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.UserAgent(cfg.UserAgent),
	)
	if cfg.UserDataDir != "" {
		// Persisted profile keeps the login state across runs.
		opts = append(opts, chromedp.UserDataDir(cfg.UserDataDir))
	}
	if cfg.Proxy != nil {
		opts = append(opts, chromedp.ProxyServer(cfg.Proxy.URL()))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		cancel()
		allocCancel()
		return nil, fmt.Errorf("chromedp warmup: %w", err)
	}
	return &browser{
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
	}, nil
}

func (b *browser) navigate(url string) error {
	if err := chromedp.Run(b.ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// cookies harvests the browser context cookies into a map.
func (b *browser) cookies() (map[string]string, error) {
	var out map[string]string
	err := chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		cookies, err := storage.GetCookies().Do(ctx)
		if err != nil {
			return err
		}
		out = make(map[string]string, len(cookies))
		for _, c := range cookies {
			out[c.Name] = c.Value
		}
		return nil
	}))
	if err != nil {
		return nil, fmt.Errorf("harvest cookies: %w", err)
	}
	return out, nil
}

// setCookies injects cookies into the browser context so a cookie
// login also authenticates in-page requests.
func (b *browser) setCookies(domain string, cookies map[string]string) error {
	err := chromedp.Run(b.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		for name, value := range cookies {
			if err := network.SetCookie(name, value).
				WithDomain(domain).
				WithPath("/").
				Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", name, err)
			}
		}
		return nil
	}))
	if err != nil {
		return err
	}
	return nil
}

func (b *browser) close() {
	b.cancel()
	b.allocCancel()
}
