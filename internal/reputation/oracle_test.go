package reputation

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"
)

type fakeResolver struct {
	hosts map[string][]string
	errs  map[string]error
	ips   map[string][]net.IP
}

func notFoundErr(name string) *net.DNSError {
	return &net.DNSError{Err: "no such host", Name: name, IsNotFound: true}
}

func (f *fakeResolver) LookupHost(_ context.Context, host string) ([]string, error) {
	if err, ok := f.errs[host]; ok {
		return nil, err
	}
	if codes, ok := f.hosts[host]; ok {
		return codes, nil
	}
	return nil, notFoundErr(host)
}

func (f *fakeResolver) LookupIP(_ context.Context, _ string, host string) ([]net.IP, error) {
	if ips, ok := f.ips[host]; ok {
		return ips, nil
	}
	return nil, notFoundErr(host)
}

func newTestChecker(r Resolver, oracles []Oracle) *Checker {
	return NewChecker(r, oracles, time.Second)
}

func findVerdict(t *testing.T, report DomainReport, oracle string) Verdict {
	t.Helper()
	for _, v := range report.Verdicts {
		if v.Oracle == oracle {
			return v
		}
	}
	t.Fatalf("no verdict for oracle %s in %+v", oracle, report.Verdicts)
	return Verdict{}
}

func TestNotFoundClassifiesClean(t *testing.T) {
	oracle := Oracle{Name: "test-dbl", Suffix: "dbl.test"}
	c := newTestChecker(&fakeResolver{}, []Oracle{oracle})

	report := c.CheckDomain(context.Background(), "example.com")

	v := findVerdict(t, report, "test-dbl")
	if v.Class != ClassClean {
		t.Errorf("class = %s, want clean", v.Class)
	}
	if report.Listed {
		t.Error("report listed on not-found response")
	}
}

func TestRealCodeClassifiesListed(t *testing.T) {
	oracle := Oracle{Name: "test-dbl", Suffix: "dbl.test"}
	r := &fakeResolver{hosts: map[string][]string{
		"bad.example.com.dbl.test": {"127.0.1.2"},
	}}
	c := newTestChecker(r, []Oracle{oracle})

	report := c.CheckDomain(context.Background(), "bad.example.com")

	v := findVerdict(t, report, "test-dbl")
	if v.Class != ClassListed {
		t.Errorf("class = %s, want listed", v.Class)
	}
	if len(v.Codes) != 1 || v.Codes[0] != "127.0.1.2" {
		t.Errorf("codes = %v, want [127.0.1.2]", v.Codes)
	}
	if !report.Listed {
		t.Error("report not listed despite real code")
	}
}

func TestAllIgnoreCodesNeverListed(t *testing.T) {
	oracle := Oracle{
		Name:        "test-dbl",
		Suffix:      "dbl.test",
		IgnoreCodes: []string{"127.255.255.254", "127.255.255.252"},
	}
	r := &fakeResolver{hosts: map[string][]string{
		"example.com.dbl.test": {"127.255.255.254", "127.255.255.252"},
	}}
	c := newTestChecker(r, []Oracle{oracle})

	report := c.CheckDomain(context.Background(), "example.com")

	v := findVerdict(t, report, "test-dbl")
	if v.Class != ClassBlocked {
		t.Errorf("class = %s, want blocked", v.Class)
	}
	if len(v.Codes) != 0 {
		t.Errorf("real codes = %v, want none", v.Codes)
	}
	if report.Listed {
		t.Error("all-ignore-code response classified as listed")
	}
}

func TestMixedIgnoreAndRealOracles(t *testing.T) {
	oracleA := Oracle{Name: "oracle-a", Suffix: "a.test", IgnoreCodes: []string{"127.255.255.254"}}
	oracleB := Oracle{Name: "oracle-b", Suffix: "b.test"}
	r := &fakeResolver{hosts: map[string][]string{
		"example.com.a.test": {"127.255.255.254"},
		"example.com.b.test": {"127.0.1.2"},
	}}
	c := newTestChecker(r, []Oracle{oracleA, oracleB})

	report := c.CheckDomain(context.Background(), "example.com")

	if !report.Listed {
		t.Fatal("overall status should be listed")
	}

	va := findVerdict(t, report, "oracle-a")
	if va.Class != ClassBlocked || len(va.Codes) != 0 {
		t.Errorf("oracle-a verdict = %+v, want blocked with no real codes", va)
	}

	vb := findVerdict(t, report, "oracle-b")
	if vb.Class != ClassListed || len(vb.Codes) != 1 {
		t.Errorf("oracle-b verdict = %+v, want listed with one code", vb)
	}
}

func TestResolverErrorIsOracleError(t *testing.T) {
	oracleA := Oracle{Name: "broken", Suffix: "broken.test"}
	oracleB := Oracle{Name: "working", Suffix: "working.test"}
	r := &fakeResolver{
		errs: map[string]error{
			"example.com.broken.test": errors.New("server misbehaving"),
		},
	}
	c := newTestChecker(r, []Oracle{oracleA, oracleB})

	report := c.CheckDomain(context.Background(), "example.com")

	// one oracle's error must not suppress the other's result
	if len(report.Verdicts) != 2 {
		t.Fatalf("got %d verdicts, want 2", len(report.Verdicts))
	}
	if v := findVerdict(t, report, "broken"); v.Class != ClassError {
		t.Errorf("broken oracle class = %s, want error", v.Class)
	}
	if v := findVerdict(t, report, "working"); v.Class != ClassClean {
		t.Errorf("working oracle class = %s, want clean", v.Class)
	}
	if report.Listed {
		t.Error("errors must not count as listings")
	}
}

func TestIPOracleSkippedWithoutARecord(t *testing.T) {
	oracle := Oracle{Name: "ip-bl", Suffix: "ipbl.test", IPBased: true}
	c := newTestChecker(&fakeResolver{}, []Oracle{oracle})

	report := c.CheckDomain(context.Background(), "unresolvable.example.com")

	v := findVerdict(t, report, "ip-bl")
	if v.Class != ClassSkipped {
		t.Errorf("class = %s, want skipped", v.Class)
	}
}

func TestIPOracleQueriesReversedOctets(t *testing.T) {
	oracle := Oracle{Name: "ip-bl", Suffix: "ipbl.test", IPBased: true}
	r := &fakeResolver{
		ips: map[string][]net.IP{
			"example.com": {net.ParseIP("192.0.2.10"), net.ParseIP("192.0.2.11")},
		},
		hosts: map[string][]string{
			// first A record only, octets reversed
			"10.2.0.192.ipbl.test": {"127.0.0.2"},
		},
	}
	c := newTestChecker(r, []Oracle{oracle})

	report := c.CheckDomain(context.Background(), "example.com")

	if report.IP != "192.0.2.10" {
		t.Errorf("resolved IP = %s, want first A record", report.IP)
	}
	v := findVerdict(t, report, "ip-bl")
	if v.Class != ClassListed {
		t.Errorf("class = %s, want listed", v.Class)
	}
}

func TestReverseIPv4(t *testing.T) {
	if got := reverseIPv4("192.0.2.10"); got != "10.2.0.192" {
		t.Errorf("reverseIPv4 = %s, want 10.2.0.192", got)
	}
}
