package reputation

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Class is the classification of one oracle check
type Class string

const (
	// ClassClean means the oracle knows the target and has nothing on it
	ClassClean Class = "clean"
	// ClassListed means the oracle returned at least one real listing code
	ClassListed Class = "listed"
	// ClassBlocked means every returned code was an ignore code: the query
	// itself was refused or rate-limited, which is not a listing
	ClassBlocked Class = "blocked"
	// ClassError means the lookup failed for this oracle only
	ClassError Class = "error"
	// ClassSkipped means the oracle could not be queried for this target
	// (e.g. no resolvable IP for an IP-class oracle)
	ClassSkipped Class = "skipped"
)

// Oracle describes one DNS-based blocklist. Domain-class oracles query
// <domain>.<suffix>; IP-class oracles query <reversed-ip>.<suffix>.
type Oracle struct {
	Name        string
	Suffix      string
	IPBased     bool
	IgnoreCodes []string
}

func (o Oracle) isIgnoreCode(code string) bool {
	for _, ignore := range o.IgnoreCodes {
		if code == ignore {
			return true
		}
	}
	return false
}

// Verdict is the result of checking one target against one oracle
type Verdict struct {
	Oracle       string   `json:"oracle"`
	Target       string   `json:"target"`
	Class        Class    `json:"class"`
	Codes        []string `json:"codes,omitempty"`
	IgnoredCodes []string `json:"ignoredCodes,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// DomainReport aggregates all oracle verdicts for one domain and its
// resolved IP. Listed is true iff any oracle returned a real listing.
type DomainReport struct {
	Domain   string    `json:"domain"`
	IP       string    `json:"ip,omitempty"`
	Listed   bool      `json:"listed"`
	Verdicts []Verdict `json:"verdicts"`
}

// DefaultOracles returns the configured blocklist set
func DefaultOracles() []Oracle {
	return []Oracle{
		{
			Name:        "Spamhaus DBL",
			Suffix:      "dbl.spamhaus.org",
			IgnoreCodes: []string{"127.255.255.252", "127.255.255.254", "127.255.255.255"},
		},
		{
			Name:   "SURBL",
			Suffix: "multi.surbl.org",
		},
		{
			Name:        "URIBL",
			Suffix:      "multi.uribl.com",
			IgnoreCodes: []string{"127.0.0.1"},
		},
		{
			Name:        "Spamhaus ZEN",
			Suffix:      "zen.spamhaus.org",
			IPBased:     true,
			IgnoreCodes: []string{"127.255.255.252", "127.255.255.254", "127.255.255.255"},
		},
		{
			Name:    "SpamCop",
			Suffix:  "bl.spamcop.net",
			IPBased: true,
		},
		{
			Name:    "Barracuda",
			Suffix:  "b.barracudacentral.org",
			IPBased: true,
		},
	}
}

// Resolver is the DNS capability the checker depends on. *net.Resolver
// satisfies it.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
	LookupIP(ctx context.Context, network, host string) ([]net.IP, error)
}

// Checker runs every configured oracle against a target concurrently
type Checker struct {
	resolver Resolver
	oracles  []Oracle
	timeout  time.Duration
	limiter  *rate.Limiter
}

// NewChecker creates a checker with a per-lookup timeout and a query rate
// limit shared across oracles.
func NewChecker(resolver Resolver, oracles []Oracle, timeout time.Duration) *Checker {
	return &Checker{
		resolver: resolver,
		oracles:  oracles,
		timeout:  timeout,
		limiter:  rate.NewLimiter(rate.Limit(20), 20),
	}
}

// CheckDomain runs all configured oracles for one domain concurrently and
// waits for every one to settle. One oracle's failure never suppresses the
// others' results.
func (c *Checker) CheckDomain(ctx context.Context, domain string) DomainReport {
	report := DomainReport{Domain: domain}

	// IP-class oracles need the domain's first A record; if resolution
	// fails they are skipped for this domain, which is not an error
	ip, err := c.resolveFirstIP(ctx, domain)
	if err != nil {
		logrus.Warnf("Could not resolve an IP for %s, skipping IP-based blocklists: %v", domain, err)
	} else {
		report.IP = ip
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)

	for _, oracle := range c.oracles {
		g.Go(func() error {
			var verdict Verdict
			if oracle.IPBased {
				if ip == "" {
					verdict = Verdict{Oracle: oracle.Name, Target: domain, Class: ClassSkipped}
				} else {
					verdict = c.query(gctx, oracle, ip, reverseIPv4(ip)+"."+oracle.Suffix)
				}
			} else {
				verdict = c.query(gctx, oracle, domain, domain+"."+oracle.Suffix)
			}

			mu.Lock()
			report.Verdicts = append(report.Verdicts, verdict)
			mu.Unlock()
			// errors are recorded in the verdict, never returned: the join
			// must collect every oracle's outcome
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(report.Verdicts, func(i, j int) bool {
		return report.Verdicts[i].Oracle < report.Verdicts[j].Oracle
	})

	for _, v := range report.Verdicts {
		if v.Class == ClassListed {
			report.Listed = true
			break
		}
	}

	return report
}

// query performs one DNSBL lookup and classifies the returned codes.
// Classification is per-code: a verdict is listed iff at least one returned
// code is outside the oracle's ignore set.
func (c *Checker) query(ctx context.Context, oracle Oracle, target, qname string) Verdict {
	verdict := Verdict{Oracle: oracle.Name, Target: target}

	if err := c.limiter.Wait(ctx); err != nil {
		verdict.Class = ClassError
		verdict.Error = err.Error()
		return verdict
	}

	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	codes, err := c.resolver.LookupHost(lookupCtx, qname)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			// not listed on this oracle
			verdict.Class = ClassClean
			return verdict
		}
		logrus.Warnf("Blocklist lookup failed on %s for %s: %v", oracle.Name, target, err)
		verdict.Class = ClassError
		verdict.Error = err.Error()
		return verdict
	}

	for _, code := range codes {
		if oracle.isIgnoreCode(code) {
			verdict.IgnoredCodes = append(verdict.IgnoredCodes, code)
		} else {
			verdict.Codes = append(verdict.Codes, code)
		}
	}

	if len(verdict.IgnoredCodes) > 0 {
		logrus.Warnf("%s refused or rate-limited the query for %s (codes %s)",
			oracle.Name, target, strings.Join(verdict.IgnoredCodes, ", "))
	}

	if len(verdict.Codes) > 0 {
		verdict.Class = ClassListed
	} else {
		verdict.Class = ClassBlocked
	}
	return verdict
}

// resolveFirstIP returns the first IPv4 address of a domain
func (c *Checker) resolveFirstIP(ctx context.Context, domain string) (string, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ips, err := c.resolver.LookupIP(lookupCtx, "ip4", domain)
	if err != nil {
		return "", err
	}
	if len(ips) == 0 {
		return "", fmt.Errorf("no A records for %s", domain)
	}
	return ips[0].String(), nil
}

// reverseIPv4 reverses the octets of a dotted-quad address for DNSBL queries
func reverseIPv4(ip string) string {
	parts := strings.Split(ip, ".")
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}
