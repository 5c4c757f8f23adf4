package page

import (
	"context"
	"errors"
	"fmt"

	"github.com/playwright-community/playwright-go"
	"github.com/rs/zerolog"
)

const visibleBinding = "__clickerwatchVisible"

// Reports visibility changes back to the sampler; runs before any page script.
var visibilityScript = `document.addEventListener('visibilitychange', () => {
	if (document.visibilityState === 'visible' && window.` + visibleBinding + `) {
		window.` + visibleBinding + `();
	}
});`

type BrowserOptions struct {
	Headless bool
	// Path to a Playwright storage state file (cookies, local storage) used to
	// reuse an authenticated session.
	StorageState string
}

// BrowserSampler keeps the page open in a Chromium tab and evaluates the
// selector against the live DOM.
type BrowserSampler struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	script  *ScriptSampler

	selector Selector
	events   chan Event
	logger   zerolog.Logger
}

func NewBrowserSampler(url string, selector Selector, opts BrowserOptions, logger zerolog.Logger) (*BrowserSampler, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	b := &BrowserSampler{
		pw:       pw,
		browser:  browser,
		selector: selector,
		events:   make(chan Event, 4),
		logger:   logger,
	}

	contextOpts := playwright.BrowserNewContextOptions{}
	if opts.StorageState != "" {
		contextOpts.StorageStatePath = playwright.String(opts.StorageState)
	}
	bctx, err := browser.NewContext(contextOpts)
	if err != nil {
		return nil, errors.Join(fmt.Errorf("browser context: %w", err), b.Close())
	}

	b.page, err = bctx.NewPage()
	if err != nil {
		return nil, errors.Join(fmt.Errorf("new page: %w", err), b.Close())
	}

	if err := b.page.ExposeFunction(visibleBinding, func(...interface{}) interface{} {
		b.emit(EventVisible)
		return nil
	}); err != nil {
		return nil, errors.Join(fmt.Errorf("expose binding: %w", err), b.Close())
	}
	if err := b.page.AddInitScript(playwright.Script{Content: playwright.String(visibilityScript)}); err != nil {
		return nil, errors.Join(fmt.Errorf("init script: %w", err), b.Close())
	}
	b.page.OnLoad(func(playwright.Page) {
		b.emit(EventLoad)
	})

	if _, err := b.page.Goto(url); err != nil {
		return nil, errors.Join(fmt.Errorf("goto %s: %w", url, err), b.Close())
	}
	b.script = NewScriptSampler(b.page, selector)

	return b, nil
}

func (b *BrowserSampler) emit(ev Event) {
	select {
	case b.events <- ev:
	default:
		b.logger.Trace().Stringer("event", ev).Msg("event dropped, consumer busy")
	}
}

func (b *BrowserSampler) Sample(ctx context.Context) (State, error) {
	return b.script.Sample(ctx)
}

func (b *BrowserSampler) Events() <-chan Event { return b.events }

func (b *BrowserSampler) Close() error {
	var errs []error
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
	}
	if b.pw != nil {
		errs = append(errs, b.pw.Stop())
	}
	return errors.Join(errs...)
}
