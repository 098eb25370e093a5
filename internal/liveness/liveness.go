package liveness

import (
	"context"
	"errors"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// checkConcurrency bounds the outstanding DNS lookups; results are always
// collected for every domain before finalizing.
const checkConcurrency = 64

// Resolver is the DNS capability the checker depends on. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// DeadDomain is one dangling-DNS finding with its full provenance
type DeadDomain struct {
	Domain  string   `json:"domain"`
	Error   string   `json:"error"`
	Sources []string `json:"sources"`
}

// Checker resolves every surfaced domain and reports the ones whose DNS
// records no longer exist.
type Checker struct {
	resolver Resolver
	timeout  time.Duration
}

// NewChecker creates a liveness checker with a per-lookup timeout
func NewChecker(resolver Resolver, timeout time.Duration) *Checker {
	return &Checker{resolver: resolver, timeout: timeout}
}

// Check resolves all domains concurrently and waits for every lookup to
// settle. A domain is dead iff the resolver error is the not-found class;
// timeouts and refusals are transient and carry no takeover signal.
func (c *Checker) Check(ctx context.Context, domains map[string][]string) []DeadDomain {
	var mu sync.Mutex
	var dead []DeadDomain

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(checkConcurrency)

	for domain, sources := range domains {
		g.Go(func() error {
			lookupCtx, cancel := context.WithTimeout(gctx, c.timeout)
			defer cancel()

			_, err := c.resolver.LookupHost(lookupCtx, domain)
			if err == nil {
				return nil
			}

			var dnsErr *net.DNSError
			if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
				logrus.Warnf("Dead domain detected: %s (%v)", domain, err)
				mu.Lock()
				dead = append(dead, DeadDomain{
					Domain:  domain,
					Error:   err.Error(),
					Sources: sources,
				})
				mu.Unlock()
				return nil
			}

			logrus.Warnf("Resolution of %s failed transiently, not treating as dead: %v", domain, err)
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(dead, func(i, j int) bool { return dead[i].Domain < dead[j].Domain })
	return dead
}
