// Package browser owns the single Chrome session a run drives.
package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"
)

// ErrNotOpen is returned by page operations before Open or after Close.
var ErrNotOpen = errors.New("browser session not open")

// Config holds browser configuration.
type Config struct {
	// ControlURL connects to an already running Chrome instead of launching one.
	ControlURL        string
	Bin               string
	Headless          bool
	ViewportWidth     int
	ViewportHeight    int
	NavigationTimeout time.Duration
	// ActionTimeout bounds element operations that have no explicit wait.
	ActionTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		ViewportWidth:     1280,
		ViewportHeight:    1600,
		NavigationTimeout: 30 * time.Second,
		ActionTimeout:     10 * time.Second,
	}
}

// Session owns one Chrome process and the tab the robot works in.
type Session struct {
	cfg       Config
	log       *zap.Logger
	launch    *launcher.Launcher
	browser   *rod.Browser
	page      *rod.Page
	closeOnce sync.Once
}

var _ Page = (*Session)(nil)

// NewSession creates an unopened session.
func NewSession(cfg Config, logger *zap.Logger) *Session {
	return &Session{cfg: cfg, log: logger.Named("browser")}
}

// Open launches or connects to Chrome and loads url in a fresh tab.
func (s *Session) Open(ctx context.Context, url string) error {
	controlURL := s.cfg.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(s.cfg.Headless)
		if s.cfg.Bin != "" {
			l = l.Bin(s.cfg.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		s.launch = l
		controlURL = u
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	s.browser = b

	page, err := b.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}

	if err := (proto.EmulationSetDeviceMetricsOverride{
		Width:             s.cfg.ViewportWidth,
		Height:            s.cfg.ViewportHeight,
		DeviceScaleFactor: 1.0,
		Mobile:            false,
	}).Call(page); err != nil {
		s.log.Warn("Failed to set viewport", zap.Error(err))
	}

	if err := page.Timeout(s.cfg.NavigationTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	s.page = page
	s.log.Info("Browser session opened", zap.String("url", url), zap.Bool("headless", s.cfg.Headless))
	return nil
}

// Close shuts the tab and the browser down. Only the first call has any effect.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.page != nil {
			_ = s.page.Context(context.Background()).Close()
		}
		if s.browser != nil {
			err = s.browser.Close()
		}
		if s.launch != nil {
			s.launch.Cleanup()
		}
		s.page = nil
		s.browser = nil
		s.log.Info("Browser session closed")
	})
	return err
}

// within runs fn against the page bounded by timeout.
func (s *Session) within(ctx context.Context, timeout time.Duration, fn func(p *rod.Page) error) error {
	if s.page == nil {
		return ErrNotOpen
	}
	p := s.page.Context(ctx).Timeout(timeout)
	defer p.CancelTimeout()
	return fn(p)
}

func find(p *rod.Page, t Target) (*rod.Element, error) {
	if t.Text == "" {
		return p.Element(t.Selector)
	}
	return p.ElementR(t.Selector, regexp.QuoteMeta(t.Text))
}

func (s *Session) WaitVisible(ctx context.Context, t Target, timeout time.Duration) error {
	return s.within(ctx, timeout, func(p *rod.Page) error {
		el, err := find(p, t)
		if err != nil {
			return fmt.Errorf("find %s: %w", t, err)
		}
		if err := el.WaitVisible(); err != nil {
			return fmt.Errorf("wait visible %s: %w", t, err)
		}
		return nil
	})
}

func (s *Session) ScrollIntoView(ctx context.Context, t Target) error {
	return s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		el, err := find(p, t)
		if err != nil {
			return fmt.Errorf("find %s: %w", t, err)
		}
		return el.ScrollIntoView()
	})
}

func (s *Session) Click(ctx context.Context, t Target) error {
	return s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		el, err := find(p, t)
		if err != nil {
			return fmt.Errorf("find %s: %w", t, err)
		}
		if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
			return fmt.Errorf("click %s: %w", t, err)
		}
		return nil
	})
}

func (s *Session) SelectValue(ctx context.Context, t Target, value string) error {
	return s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		el, err := find(p, t)
		if err != nil {
			return fmt.Errorf("find %s: %w", t, err)
		}
		option := fmt.Sprintf("[value=%q]", value)
		if err := el.Select([]string{option}, true, rod.SelectorTypeCSSSector); err != nil {
			return fmt.Errorf("select %s in %s: %w", value, t, err)
		}
		return nil
	})
}

func (s *Session) Input(ctx context.Context, t Target, text string) error {
	return s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		el, err := find(p, t)
		if err != nil {
			return fmt.Errorf("find %s: %w", t, err)
		}
		if _, err := el.Eval(`function() { this.value = '' }`); err != nil {
			return fmt.Errorf("clear %s: %w", t, err)
		}
		if err := el.Input(text); err != nil {
			return fmt.Errorf("input %s: %w", t, err)
		}
		return nil
	})
}

func (s *Session) Visible(ctx context.Context, t Target) bool {
	visible := false
	_ = s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		var (
			has bool
			el  *rod.Element
			err error
		)
		if t.Text == "" {
			has, el, err = p.Has(t.Selector)
		} else {
			has, el, err = p.HasR(t.Selector, regexp.QuoteMeta(t.Text))
		}
		if err != nil || !has {
			return err
		}
		visible, err = el.Visible()
		return err
	})
	return visible
}

func (s *Session) Reload(ctx context.Context) error {
	return s.within(ctx, s.cfg.NavigationTimeout, func(p *rod.Page) error {
		if err := p.Reload(); err != nil {
			return fmt.Errorf("reload: %w", err)
		}
		return p.WaitLoad()
	})
}

func (s *Session) HTML(ctx context.Context) (string, error) {
	var markup string
	err := s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		var err error
		markup, err = p.HTML()
		return err
	})
	return markup, err
}

func (s *Session) Screenshot(ctx context.Context, path string) error {
	return s.within(ctx, s.cfg.ActionTimeout, func(p *rod.Page) error {
		data, err := p.Screenshot(true, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			return fmt.Errorf("capture screenshot: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
		return os.WriteFile(path, data, 0o644)
	})
}

func (s *Session) RenderPDF(ctx context.Context, markup string) ([]byte, error) {
	if s.browser == nil {
		return nil, ErrNotOpen
	}
	tab, err := s.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("open render tab: %w", err)
	}
	defer func() { _ = tab.Close() }()

	printer := tab.Timeout(s.cfg.NavigationTimeout)
	defer printer.CancelTimeout()

	if err := printer.SetDocumentContent(markup); err != nil {
		return nil, fmt.Errorf("set document content: %w", err)
	}
	stream, err := printer.PDF(&proto.PagePrintToPDF{PrintBackground: true})
	if err != nil {
		return nil, fmt.Errorf("print to pdf: %w", err)
	}
	return io.ReadAll(stream)
}
