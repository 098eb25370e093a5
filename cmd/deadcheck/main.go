package main

import (
	"context"
	"net"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/config"
	"github.com/dcoric/website-security-scanner/internal/liveness"
	"github.com/dcoric/website-security-scanner/internal/report"
	"github.com/dcoric/website-security-scanner/internal/version"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	logrus.Infof("Website Security Scanner v%s dead-domain check", version.Version)

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	pageURLs, err := report.ReadFoundURLs(cfg.OutputDir)
	if err != nil {
		logrus.Fatalf("Crawl output required before dead-domain check: %v", err)
	}

	var scriptEntries []liveness.ScriptEntry
	scripts, err := report.ReadDownloadedScripts(cfg.OutputDir)
	if err != nil {
		logrus.Warnf("No script inventory, script provenance will be unknown: %v", err)
	} else {
		for _, s := range scripts {
			scriptEntries = append(scriptEntries, liveness.ScriptEntry{
				Filename:    s.Filename,
				OriginalURL: s.OriginalURL,
				FoundOnPage: s.FoundOnPage,
			})
		}
	}

	targets := liveness.GatherTargets(pageURLs, scriptEntries, cfg.ScriptsDir)
	logrus.Infof("Checking %d unique domain(s) for dangling DNS records", len(targets))

	checker := liveness.NewChecker(net.DefaultResolver, time.Duration(cfg.DNSTimeoutMs)*time.Millisecond)
	dead := checker.Check(context.Background(), targets)
	if dead == nil {
		dead = []liveness.DeadDomain{}
	}

	deadReport := report.DeadDomainsReport{
		DeadDomains:  dead,
		TotalChecked: len(targets),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := report.WriteJSON(cfg.OutputDir, report.DeadDomainsFile, deadReport); err != nil {
		logrus.Errorf("Failed to write dead-domain report: %v", err)
	}

	if len(dead) > 0 {
		logrus.Errorf("%d dead domain(s) found", len(dead))
		os.Exit(1)
	}
	logrus.Info("No dead domains found")
}
