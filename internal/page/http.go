package page

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/net/html"
)

const maxDocumentSize = 8 << 20

// HTTPSampler fetches the page on every sample and inspects the served DOM.
// It suits pages that render the condition server side.
type HTTPSampler struct {
	url      string
	selector Selector
	client   *http.Client
	header   http.Header

	events chan Event
	mu     sync.Mutex
	failed bool
}

func NewHTTPSampler(url string, selector Selector, client *http.Client, header http.Header) *HTTPSampler {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSampler{
		url:      url,
		selector: selector,
		client:   client,
		header:   header.Clone(),
		events:   make(chan Event, 1),
		failed:   true,
	}
}

func (h *HTTPSampler) Sample(ctx context.Context) (State, error) {
	doc, err := h.fetch(ctx)
	h.track(err)
	if err != nil {
		return Closed, err
	}
	return h.selector.State(doc), nil
}

func (h *HTTPSampler) fetch(ctx context.Context) (*html.Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.url, nil)
	if err != nil {
		return nil, err
	}
	for k, v := range h.header {
		req.Header[k] = v
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("fetch %s: %s", h.url, resp.Status)
	}

	doc, err := html.Parse(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", h.url, err)
	}
	return doc, nil
}

// track emits EventLoad whenever a fetch succeeds after a failed (or no) fetch.
func (h *HTTPSampler) track(err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err != nil {
		h.failed = true
		return
	}
	if h.failed {
		h.failed = false
		select {
		case h.events <- EventLoad:
		default:
		}
	}
}

func (h *HTTPSampler) Events() <-chan Event { return h.events }

func (h *HTTPSampler) Close() error {
	h.client.CloseIdleConnections()
	return nil
}
