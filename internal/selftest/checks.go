package selftest

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"grantgate/internal/selftest/models"
	"grantgate/internal/selftest/ports"
)

// Check produces a batch of results. The engine runs registered checks
// concurrently; a check error fails the whole run.
type Check func(ctx context.Context) ([]models.Result, error)

// DependencyFreshness flags dependencies pinned to pre-release versions.
// Stable dependencies produce no result.
func DependencyFreshness(source ports.DependencySource) Check {
	return func(ctx context.Context) ([]models.Result, error) {
		deps, err := source.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list dependencies: %w", err)
		}

		var results []models.Result
		for _, dep := range deps {
			if !strings.Contains(dep.Version, "alpha") && !strings.Contains(dep.Version, "beta") {
				continue
			}
			results = append(results, models.Result{
				TestID: "dep-" + dep.Name,
				Type:   models.TypeStatic,
				Name:   "Dependency Check",
				Status: models.StatusWarning,
				Details: models.Details{
					Description: fmt.Sprintf("Using non-production version of %s", dep.Name),
					Severity:    models.SeverityMedium,
					Remediation: "Update to stable version",
				},
			})
		}
		return results, nil
	}
}

var secretKeyPattern = regexp.MustCompile(`(?i)(api[_-]?key|auth[_-]?token|password|secret)`)

// weakValuePattern matches placeholder secrets that must never reach
// production.
var weakValuePattern = regexp.MustCompile(`(?i)(dev|change|example|default|test)`)

// SecretsDetection scans named configuration values for secret-shaped keys
// carrying placeholder values.
func SecretsDetection(values map[string]string) Check {
	return func(ctx context.Context) ([]models.Result, error) {
		var results []models.Result
		for key, value := range values {
			if !secretKeyPattern.MatchString(key) {
				continue
			}
			if value != "" && weakValuePattern.MatchString(value) {
				results = append(results, models.Result{
					TestID: "secret-" + key,
					Type:   models.TypeStatic,
					Name:   "Secrets Detection",
					Status: models.StatusFailed,
					Details: models.Details{
						Description: fmt.Sprintf("Configuration value %q looks like a placeholder secret", key),
						Severity:    models.SeverityCritical,
						Location:    key,
						Remediation: "Provision a real secret via the environment",
					},
				})
			}
		}
		return results, nil
	}
}

type dynamicProbe struct {
	name     string
	endpoint string
	payload  string
}

// The fixed probe battery. Endpoints are illustrative application routes.
var dynamicProbes = []dynamicProbe{
	{name: "SQL Injection", endpoint: "/api/data", payload: "' OR '1'='1"},
	{name: "XSS", endpoint: "/api/comments", payload: `<script>alert("xss")</script>`},
	{name: "CSRF", endpoint: "/api/transfer"},
}

// DynamicProbes runs the fixed probe battery through the given prober.
func DynamicProbes(prober ports.Prober) Check {
	return func(ctx context.Context) ([]models.Result, error) {
		var results []models.Result
		for _, probe := range dynamicProbes {
			status, err := prober.Probe(ctx, probe.name, probe.endpoint, probe.payload)
			if err != nil {
				return nil, fmt.Errorf("probe %s: %w", probe.name, err)
			}
			results = append(results, models.Result{
				TestID: "dynamic-" + probe.name,
				Type:   models.TypeDynamic,
				Name:   probe.name,
				Status: status,
				Details: models.Details{
					Description: fmt.Sprintf("%s test completed", probe.name),
					Severity:    models.SeverityHigh,
					Location:    probe.endpoint,
				},
			})
		}
		return results, nil
	}
}

// StaticProber passes every probe. Used until a deployment wires a prober
// that exercises real endpoints.
type StaticProber struct{}

func (StaticProber) Probe(context.Context, string, string, string) (models.Status, error) {
	return models.StatusPassed, nil
}

// StaticDependencySource serves a fixed dependency list.
type StaticDependencySource struct {
	Dependencies []ports.Dependency
}

func (s StaticDependencySource) List(context.Context) ([]ports.Dependency, error) {
	return s.Dependencies, nil
}
