package main

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dcoric/website-security-scanner/internal/config"
	"github.com/dcoric/website-security-scanner/internal/report"
	"github.com/dcoric/website-security-scanner/internal/reputation"
	"github.com/dcoric/website-security-scanner/internal/version"
)

func main() {
	logrus.SetLevel(logrus.InfoLevel)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if len(os.Args) < 2 {
		logrus.Error("Usage: safebrowsing <target-URL>")
		os.Exit(1)
	}
	target := os.Args[1]

	logrus.Infof("Website Security Scanner v%s Safe Browsing check for %s", version.Version, target)

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	client := reputation.NewSafeBrowsingClient(cfg.SafeBrowsingKey)
	result := client.CheckURL(context.Background(), target)

	sbReport := report.SafeBrowsingReport{
		URL:       result.URL,
		Status:    result.Status,
		Matches:   result.Matches,
		Details:   result.Details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := report.WriteJSON(cfg.OutputDir, report.SafeBrowsingReportFile, sbReport); err != nil {
		logrus.Errorf("Failed to write Safe Browsing report: %v", err)
	}

	logrus.Infof("Safe Browsing status: %s (%s)", result.Status, result.Details)

	if result.Status == reputation.SafeBrowsingUnsafe {
		os.Exit(1)
	}
}
