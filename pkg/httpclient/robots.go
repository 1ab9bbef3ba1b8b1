package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsGate caches one robots.txt group per host.
type robotsGate struct {
	c      *HTTPClient
	mu     sync.Mutex
	groups map[string]*robotstxt.Group
}

func newRobotsGate(c *HTTPClient) *robotsGate {
	return &robotsGate{c: c, groups: make(map[string]*robotstxt.Group)}
}

func (g *robotsGate) check(ctx context.Context, u *url.URL) error {
	group := g.group(ctx, u)
	if group == nil || group.Test(u.RequestURI()) {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrDisallowed, u.String())
}

// group loads robots.txt for the URL's host once. A robots.txt that cannot be
// loaded allows everything.
func (g *robotsGate) group(ctx context.Context, u *url.URL) *robotstxt.Group {
	g.mu.Lock()
	defer g.mu.Unlock()

	host := u.Scheme + "://" + u.Host
	if group, ok := g.groups[host]; ok {
		return group
	}

	robotsURL := host + "/robots.txt"
	var group *robotstxt.Group

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err == nil {
		var resp *http.Response
		resp, err = g.c.Do(req)
		if err == nil {
			var data *robotstxt.RobotsData
			data, err = robotstxt.FromResponse(resp)
			resp.Body.Close()
			if err == nil {
				group = data.FindGroup(g.c.UserAgent())
			}
		}
	}
	if err != nil {
		g.c.logger.Warn().Err(err).Str("robots_url", robotsURL).Msg("robots.txt unavailable, allowing all")
	}

	g.groups[host] = group
	return group
}
