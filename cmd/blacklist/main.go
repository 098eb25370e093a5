package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/config"
	"github.com/dcoric/website-security-scanner/internal/report"
	"github.com/dcoric/website-security-scanner/internal/reputation"
	"github.com/dcoric/website-security-scanner/internal/urlutil"
	"github.com/dcoric/website-security-scanner/internal/version"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if len(os.Args) < 2 {
		logrus.Error("Usage: blacklist <target-URL-or-domain>")
		os.Exit(1)
	}

	domain, ok := urlutil.ExtractHostname(os.Args[1])
	if !ok || !urlutil.IsCheckableHost(domain) {
		logrus.Fatalf("Cannot derive a checkable domain from %q", os.Args[1])
	}

	logrus.Infof("Website Security Scanner v%s checking %s against %d blocklists",
		version.Version, domain, len(reputation.DefaultOracles()))

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	checker := reputation.NewChecker(
		net.DefaultResolver,
		reputation.DefaultOracles(),
		time.Duration(cfg.DNSTimeoutMs)*time.Millisecond,
	)
	domainReport := checker.CheckDomain(context.Background(), domain)

	blacklistReport := report.BuildBlacklistReport(domainReport)
	if err := report.WriteJSON(cfg.OutputDir, report.BlacklistReportFile, blacklistReport); err != nil {
		logrus.Errorf("Failed to write blacklist report: %v", err)
	}

	logrus.Infof("Blacklist status for %s: %s", domain, blacklistReport.Status)

	// Only a real listing fails the run; blocked/inconclusive does not
	if domainReport.Listed {
		os.Exit(1)
	}
}
