package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/rflorenc/intune-workbench/internal/models"
)

// Attempt is one (endpoint, version) step of a fallback chain.
type Attempt struct {
	Endpoint   string
	APIVersion APIVersion
}

func (a Attempt) String() string {
	return string(a.APIVersion) + a.Endpoint
}

// Collection endpoints.
var (
	ModernProfiles = Attempt{"/deviceManagement/configurationPolicies?$expand=settings", Preview}
	LegacyProfiles = Attempt{"/deviceManagement/deviceConfigurations", Stable}

	// ScriptAttempts are tried in order; the first success wins.
	ScriptAttempts = []Attempt{
		{"/deviceManagement/deviceManagementScripts", Stable},
		{"/deviceManagement/deviceManagementScripts", Preview},
		{"/deviceManagement/scripts", Stable},
		{"/deviceManagement/deviceHealthScripts", Preview},
	}

	CompliancePolicies = Attempt{"/deviceManagement/deviceCompliancePolicies", Stable}
	MobileApps         = Attempt{"/deviceAppManagement/mobileApps", Stable}
)

// Lister fetches every row of a collection endpoint.
type Lister interface {
	List(ctx context.Context, endpoint string, version APIVersion) ([]map[string]any, error)
}

// Loaders map remote collections into normalized items.
type Loaders struct {
	client *Client
	log    *zap.Logger
}

// NewLoaders creates the collection loaders on top of a client.
func NewLoaders(client *Client, log *zap.Logger) *Loaders {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loaders{client: client, log: log}
}

// firstSuccess runs the attempts strictly in sequence and returns the rows of
// the first one that succeeds. When every attempt fails the combined error
// lists each failure. A missing token stops the chain immediately.
func firstSuccess(ctx context.Context, l Lister, log *zap.Logger, attempts []Attempt) ([]map[string]any, Attempt, error) {
	var errs error
	for _, a := range attempts {
		rows, err := l.List(ctx, a.Endpoint, a.APIVersion)
		if err == nil {
			return rows, a, nil
		}
		log.Debug("attempt failed", zap.Stringer("attempt", a), zap.Error(err))
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			return nil, Attempt{}, ctx.Err()
		}
		if errors.Is(err, ErrAuthRequired) {
			return nil, Attempt{}, err
		}
	}
	return nil, Attempt{}, fmt.Errorf("all %d attempts failed: %w", len(attempts), errs)
}

// Profiles loads both the settings catalog policies and the legacy device
// configurations, modern first. A legacy profile whose id was already seen is
// dropped. An error is returned only when both sources fail.
func (l *Loaders) Profiles(ctx context.Context) ([]models.Profile, error) {
	modern, modernErr := l.client.List(ctx, ModernProfiles.Endpoint, ModernProfiles.APIVersion)
	if modernErr != nil {
		l.log.Debug("configuration policies unavailable", zap.Error(modernErr))
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	legacy, legacyErr := l.client.List(ctx, LegacyProfiles.Endpoint, LegacyProfiles.APIVersion)
	if legacyErr != nil {
		l.log.Debug("device configurations unavailable", zap.Error(legacyErr))
	}
	if modernErr != nil && legacyErr != nil {
		return nil, fmt.Errorf("loading profiles: %w", multierr.Combine(modernErr, legacyErr))
	}

	profiles := make([]models.Profile, 0, len(modern)+len(legacy))
	seen := make(map[string]bool, len(modern))
	for _, row := range modern {
		p := normalizeConfigurationPolicy(row)
		seen[p.ID] = true
		profiles = append(profiles, p)
	}
	for _, row := range legacy {
		p := normalizeDeviceConfiguration(row)
		if seen[p.ID] {
			l.log.Debug("duplicate profile dropped", zap.String("id", p.ID))
			continue
		}
		seen[p.ID] = true
		profiles = append(profiles, p)
	}
	return profiles, nil
}

// Scripts walks the script fallback chain. Exhausting the chain is not an
// error: the tenant simply has no reachable script endpoint.
func (l *Loaders) Scripts(ctx context.Context) ([]models.Script, error) {
	rows, used, err := firstSuccess(ctx, l.client, l.log, ScriptAttempts)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, ErrAuthRequired) {
			return nil, err
		}
		l.log.Warn("no script endpoint available", zap.Error(err))
		return []models.Script{}, nil
	}

	scripts := make([]models.Script, 0, len(rows))
	for _, row := range rows {
		payload, ok := scriptPayload(row)
		if !ok {
			payload = l.fetchPayload(ctx, used, stringField(row, "id"))
		}
		scripts = append(scripts, normalizeScript(row, payload))
	}
	return scripts, nil
}

// fetchPayload reads a single script to obtain its content. Listings omit
// the content; a failure here leaves the payload empty.
func (l *Loaders) fetchPayload(ctx context.Context, from Attempt, id string) string {
	if id == "" {
		return ""
	}
	endpoint := strings.TrimRight(from.Endpoint, "/") + "/" + id
	var row map[string]any
	if err := l.client.CallJSON(ctx, endpoint, CallOptions{APIVersion: from.APIVersion}, &row); err != nil {
		l.log.Warn("script content unavailable", zap.String("id", id), zap.Error(err))
		return ""
	}
	payload, _ := scriptPayload(row)
	return payload
}

// Compliance loads device compliance policies. Failures propagate.
func (l *Loaders) Compliance(ctx context.Context) ([]models.CompliancePolicy, error) {
	rows, err := l.client.List(ctx, CompliancePolicies.Endpoint, CompliancePolicies.APIVersion)
	if err != nil {
		return nil, fmt.Errorf("loading compliance policies: %w", err)
	}
	out := make([]models.CompliancePolicy, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalizeCompliance(row))
	}
	return out, nil
}

// Apps loads managed mobile apps. Failures propagate.
func (l *Loaders) Apps(ctx context.Context) ([]models.App, error) {
	rows, err := l.client.List(ctx, MobileApps.Endpoint, MobileApps.APIVersion)
	if err != nil {
		return nil, fmt.Errorf("loading mobile apps: %w", err)
	}
	out := make([]models.App, 0, len(rows))
	for _, row := range rows {
		out = append(out, normalizeApp(row))
	}
	return out, nil
}
