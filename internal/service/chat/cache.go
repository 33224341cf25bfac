package chat

import "github.com/serenamente/serenbot/backend/internal/model/chat"

// responseCache is a FIFO map of normalized text to response. Responses are
// stored by pointer and replayed as-is.
type responseCache struct {
	limit int
	items map[string]*chat.Response
	order []string
}

func newResponseCache(limit int) *responseCache {
	return &responseCache{limit: limit, items: make(map[string]*chat.Response)}
}

func (c *responseCache) get(key string) (*chat.Response, bool) {
	resp, ok := c.items[key]
	return resp, ok
}

// put stores resp unless caching is disabled or resp is a crisis response.
func (c *responseCache) put(key string, resp *chat.Response) {
	if c.limit <= 0 || resp == nil || resp.IsCrisis {
		return
	}
	if _, exists := c.items[key]; exists {
		c.items[key] = resp
		return
	}
	for len(c.order) >= c.limit {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.items, oldest)
	}
	c.items[key] = resp
	c.order = append(c.order, key)
}

func (c *responseCache) len() int { return len(c.order) }

func (c *responseCache) clear() {
	c.items = make(map[string]*chat.Response)
	c.order = nil
}
