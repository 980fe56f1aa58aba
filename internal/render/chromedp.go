package render

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/meshvault/meshvault-backend/internal/pkg/logger"
)

// Renderer drives the external headless-rendering collaborator: navigate to a
// per-asset viewer page, wait for its completion signal, capture a PNG of the
// rendered model.
type Renderer interface {
	Render(ctx context.Context, viewerURL string) ([]byte, error)
}

const (
	defaultWaitCeiling = 60 * time.Second
	defaultSelector    = "#viewer"
	statusPollInterval = 100 * time.Millisecond
)

type ChromeConfig struct {
	// CDPURL attaches to a running browser over the DevTools protocol.
	// When empty a local Chrome is launched.
	CDPURL      string
	ChromePath  string
	Headless    bool
	WaitCeiling time.Duration
	Selector    string
}

type ChromeRenderer struct {
	log *logger.Logger
	cfg ChromeConfig
}

func NewChromeRenderer(log *logger.Logger, cfg ChromeConfig) *ChromeRenderer {
	if cfg.WaitCeiling <= 0 {
		cfg.WaitCeiling = defaultWaitCeiling
	}
	if strings.TrimSpace(cfg.Selector) == "" {
		cfg.Selector = defaultSelector
	}
	return &ChromeRenderer{
		log: log.With("service", "ChromeRenderer"),
		cfg: cfg,
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, viewerURL string) ([]byte, error) {
	if strings.TrimSpace(viewerURL) == "" {
		return nil, fmt.Errorf("viewer url is empty")
	}

	var allocCtx context.Context
	var allocCancel context.CancelFunc
	if strings.TrimSpace(r.cfg.CDPURL) != "" {
		allocCtx, allocCancel = chromedp.NewRemoteAllocator(ctx, r.cfg.CDPURL)
	} else {
		opts := append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", r.cfg.Headless),
			chromedp.Flag("disable-gpu", r.cfg.Headless),
		)
		if path := strings.TrimSpace(r.cfg.ChromePath); path != "" {
			opts = append(opts, chromedp.ExecPath(path))
		}
		allocCtx, allocCancel = chromedp.NewExecAllocator(ctx, opts...)
	}
	defer allocCancel()

	tabCtx, tabCancel := chromedp.NewContext(allocCtx)
	defer tabCancel()

	// The completion wait is bounded by the wait ceiling; the overall session
	// ceiling is on ctx, enforced by the caller.
	waitCtx, waitCancel := context.WithTimeout(tabCtx, r.cfg.WaitCeiling)
	defer waitCancel()

	if err := chromedp.Run(waitCtx,
		chromedp.Navigate(viewerURL),
		chromedp.WaitVisible(r.cfg.Selector, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("navigate viewer: %w", err)
	}
	if err := waitForViewerStatus(waitCtx, r.cfg.WaitCeiling); err != nil {
		return nil, err
	}

	var png []byte
	if err := chromedp.Run(tabCtx,
		chromedp.Screenshot(r.cfg.Selector, &png, chromedp.NodeVisible, chromedp.ByQuery),
	); err != nil {
		return nil, fmt.Errorf("capture screenshot: %w", err)
	}
	return png, nil
}

// waitForViewerStatus polls the viewer page's completion signal. The page
// reports through document.documentElement.dataset.viewerStatus ("ready" or
// "error", with dataset.viewerError carrying the message).
func waitForViewerStatus(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = defaultWaitCeiling
	}
	deadline := time.Now().Add(timeout)

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("viewer wait canceled: %w", ctx.Err())
		default:
		}

		var status, viewerErr string
		_ = chromedp.Run(ctx,
			chromedp.Evaluate(`document.documentElement.dataset.viewerStatus || ""`, &status),
			chromedp.Evaluate(`document.documentElement.dataset.viewerError || ""`, &viewerErr),
		)

		switch strings.TrimSpace(status) {
		case "ready":
			return nil
		case "error":
			if strings.TrimSpace(viewerErr) == "" {
				viewerErr = "unknown error"
			}
			return fmt.Errorf("viewer reported failure: %s", viewerErr)
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("viewer render timed out (status=%q)", status)
		}
		time.Sleep(statusPollInterval)
	}
}
