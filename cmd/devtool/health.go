package main

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultBaseURL     = "http://localhost:8080"
	healthCheckTimeout = 5 * time.Second
	slowResponse       = time.Second
)

type HealthCheckCommand struct{}

func (c *HealthCheckCommand) Name() string {
	return "health-check"
}

func (c *HealthCheckCommand) Description() string {
	return "Check liveness and readiness of a running service ([base url])"
}

func (c *HealthCheckCommand) Run(args []string) error {
	base := getEnv("BASE_URL", defaultBaseURL)
	if len(args) > 0 {
		base = args[0]
	}
	base = strings.TrimRight(base, "/")
	PrintHeader(fmt.Sprintf("Health Check (%s)", base))

	for _, path := range []string{"/healthz", "/readyz"} {
		start := time.Now()
		if err := checkEndpoint(base + path); err != nil {
			PrintError("%s failed: %v", path, err)
			return err
		}
		if d := time.Since(start); d > slowResponse {
			PrintWarning("%s slow response time (%v)", path, d)
		} else {
			PrintSuccess("%s passed (response time: %v)", path, d)
		}
	}
	return nil
}

func checkEndpoint(url string) error {
	ctx, cancel := context.WithTimeout(context.Background(), healthCheckTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
