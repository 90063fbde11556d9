package geocode

import (
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/text/unicode/norm"

	"github.com/sojunghan/territory-cli/internal/model"
)

// resultCache holds non-empty search results in memory for a TTL.
type resultCache struct {
	cache *gocache.Cache
}

func newResultCache(ttl time.Duration) *resultCache {
	return &resultCache{cache: gocache.New(ttl, 2*ttl)}
}

// cacheKey normalizes a query so equivalent spellings share an entry.
func cacheKey(query string) string {
	return strings.Join(strings.Fields(norm.NFC.String(query)), " ")
}

func (c *resultCache) get(query string) ([]model.Candidate, bool) {
	v, ok := c.cache.Get(cacheKey(query))
	if !ok {
		return nil, false
	}
	return cloneCandidates(v.([]model.Candidate)), true
}

func (c *resultCache) set(query string, candidates []model.Candidate) {
	c.cache.SetDefault(cacheKey(query), cloneCandidates(candidates))
}

func (c *resultCache) len() int {
	return c.cache.ItemCount()
}

// cloneCandidates copies candidates and their metadata maps.
func cloneCandidates(in []model.Candidate) []model.Candidate {
	out := make([]model.Candidate, len(in))
	for i, c := range in {
		out[i] = c
		if c.Metadata != nil {
			md := make(map[string]string, len(c.Metadata))
			for k, v := range c.Metadata {
				md[k] = v
			}
			out[i].Metadata = md
		}
	}
	return out
}
