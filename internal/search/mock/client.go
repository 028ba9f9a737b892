package mock

import (
	"context"
	"sync"

	"github.com/kitbuilder587/podcast-radar/internal/search"
)

// Client - скриптуемая заглушка search.Client для unit-тестов.
type Client struct {
	Page  *search.Page
	Error error

	CallCount  int
	LastParams search.Params
	AllParams  []search.Params

	mu sync.Mutex
}

func New() *Client {
	return &Client{}
}

func (c *Client) WithPage(page *search.Page) *Client {
	c.Page = page
	return c
}

func (c *Client) WithError(err error) *Client {
	c.Error = err
	return c
}

func (c *Client) Search(ctx context.Context, params search.Params) (*search.Page, error) {
	c.mu.Lock()
	c.CallCount++
	c.LastParams = params
	c.AllParams = append(c.AllParams, params)
	page := c.Page
	err := c.Error
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	if page == nil {
		return &search.Page{}, nil
	}

	return page, nil
}
