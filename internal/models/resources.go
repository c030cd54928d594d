package models

import (
	"fmt"
	"time"
)

// Kind discriminates the four resource collections pulled from the tenant.
type Kind string

const (
	KindProfile    Kind = "profile"
	KindScript     Kind = "script"
	KindCompliance Kind = "compliance"
	KindApp        Kind = "app"
)

// Kinds lists every kind in collection order.
var Kinds = []Kind{KindProfile, KindScript, KindCompliance, KindApp}

// ParseKind accepts a kind tag ("profile") or its collection name ("profiles").
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if s == string(k) || s == k.Collection() {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown resource kind %q", s)
}

// Collection returns the All-Data field name holding items of this kind.
func (k Kind) Collection() string {
	switch k {
	case KindProfile:
		return "profiles"
	case KindScript:
		return "scripts"
	case KindCompliance:
		return "compliance"
	case KindApp:
		return "apps"
	}
	return ""
}

// Label is the human-readable section title for the kind.
func (k Kind) Label() string {
	switch k {
	case KindProfile:
		return "Configuration Profiles"
	case KindScript:
		return "PowerShell Scripts"
	case KindCompliance:
		return "Compliance Policies"
	case KindApp:
		return "Mobile Applications"
	}
	return string(k)
}

// ResourceItem holds the fields every normalized item shares.
type ResourceItem struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	Description string `json:"description"`
	Kind        Kind   `json:"kind"`
}

// Item is the closed set of normalized resources: *only* Profile, Script,
// CompliancePolicy and App implement it.
type Item interface {
	Key() ItemKey
	Meta() ResourceItem
	// Platform is the human platform label ("Windows", "iOS", ...), empty when
	// the kind carries none.
	Platform() string
	// TypeTag is the fully-qualified source type, empty when the kind carries none.
	TypeTag() string
	Created() *time.Time
	Modified() *time.Time

	sealed()
}

// ProfileVariant records which endpoint family produced a profile.
type ProfileVariant string

const (
	VariantConfigurationPolicy ProfileVariant = "configurationPolicy"
	VariantDeviceConfiguration ProfileVariant = "deviceConfiguration"
)

// Setting is one configured value on a profile.
type Setting struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

// Profile is a device configuration profile (settings catalog policy or legacy template).
type Profile struct {
	ResourceItem
	Platforms     string         `json:"platforms"`
	TypeTagValue  string         `json:"typeTag,omitempty"`
	Settings      []Setting      `json:"settings"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
	ModifiedAt    *time.Time     `json:"modifiedAt,omitempty"`
	SourceVariant ProfileVariant `json:"sourceVariant"`
}

func (p Profile) Key() ItemKey         { return ItemKey{Kind: KindProfile, ID: p.ID} }
func (p Profile) Meta() ResourceItem   { return p.ResourceItem }
func (p Profile) Platform() string     { return p.Platforms }
func (p Profile) TypeTag() string      { return p.TypeTagValue }
func (p Profile) Created() *time.Time  { return p.CreatedAt }
func (p Profile) Modified() *time.Time { return p.ModifiedAt }
func (Profile) sealed()                {}

// Script is a device management (or remediation) PowerShell script.
type Script struct {
	ResourceItem
	ExecutionContext string `json:"executionContext"`
	RunAsAccount     string `json:"runAsAccount"`
	// Payload is the content exactly as the source returned it.
	Payload string `json:"payload"`
	// Content is the decoded payload, or Payload verbatim when it could not be decoded.
	Content      string       `json:"content"`
	PayloadState PayloadState `json:"payloadState"`
	CreatedAt    *time.Time   `json:"createdAt,omitempty"`
	ModifiedAt   *time.Time   `json:"modifiedAt,omitempty"`
}

func (s Script) Key() ItemKey         { return ItemKey{Kind: KindScript, ID: s.ID} }
func (s Script) Meta() ResourceItem   { return s.ResourceItem }
func (s Script) Platform() string     { return "" }
func (s Script) TypeTag() string      { return "" }
func (s Script) Created() *time.Time  { return s.CreatedAt }
func (s Script) Modified() *time.Time { return s.ModifiedAt }
func (Script) sealed()                {}

// CompliancePolicy is a device compliance policy.
type CompliancePolicy struct {
	ResourceItem
	PolicyTypeTag string         `json:"policyTypeTag"`
	PlatformLabel string         `json:"platform"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
	ModifiedAt    *time.Time     `json:"modifiedAt,omitempty"`
	Raw           map[string]any `json:"raw,omitempty"`
}

func (c CompliancePolicy) Key() ItemKey         { return ItemKey{Kind: KindCompliance, ID: c.ID} }
func (c CompliancePolicy) Meta() ResourceItem   { return c.ResourceItem }
func (c CompliancePolicy) Platform() string     { return c.PlatformLabel }
func (c CompliancePolicy) TypeTag() string      { return c.PolicyTypeTag }
func (c CompliancePolicy) Created() *time.Time  { return c.CreatedAt }
func (c CompliancePolicy) Modified() *time.Time { return c.ModifiedAt }
func (CompliancePolicy) sealed()                {}

// App is a managed mobile application.
type App struct {
	ResourceItem
	Publisher     string         `json:"publisher,omitempty"`
	PolicyTypeTag string         `json:"policyTypeTag"`
	PlatformLabel string         `json:"platform"`
	PublishedAt   *time.Time     `json:"publishedAt,omitempty"`
	CreatedAt     *time.Time     `json:"createdAt,omitempty"`
	ModifiedAt    *time.Time     `json:"modifiedAt,omitempty"`
	Raw           map[string]any `json:"raw,omitempty"`
}

func (a App) Key() ItemKey         { return ItemKey{Kind: KindApp, ID: a.ID} }
func (a App) Meta() ResourceItem   { return a.ResourceItem }
func (a App) Platform() string     { return a.PlatformLabel }
func (a App) TypeTag() string      { return a.PolicyTypeTag }
func (a App) Created() *time.Time  { return a.CreatedAt }
func (a App) Modified() *time.Time { return a.ModifiedAt }
func (App) sealed()                {}

// AllData holds one ordered sequence per kind, in source order.
type AllData struct {
	Profiles   []Profile          `json:"profiles"`
	Scripts    []Script           `json:"scripts"`
	Compliance []CompliancePolicy `json:"compliance"`
	Apps       []App              `json:"apps"`
}

// NewAllData returns an All-Data value with empty (non-nil) sequences.
func NewAllData() AllData {
	return AllData{
		Profiles:   []Profile{},
		Scripts:    []Script{},
		Compliance: []CompliancePolicy{},
		Apps:       []App{},
	}
}

// Items returns the items of one kind as the Item interface, preserving order.
func (d AllData) Items(k Kind) []Item {
	switch k {
	case KindProfile:
		return asItems(d.Profiles)
	case KindScript:
		return asItems(d.Scripts)
	case KindCompliance:
		return asItems(d.Compliance)
	case KindApp:
		return asItems(d.Apps)
	}
	return nil
}

// All returns every item, kinds in collection order.
func (d AllData) All() []Item {
	all := make([]Item, 0, d.Total())
	for _, k := range Kinds {
		all = append(all, d.Items(k)...)
	}
	return all
}

// Count returns the number of items of one kind.
func (d AllData) Count(k Kind) int {
	switch k {
	case KindProfile:
		return len(d.Profiles)
	case KindScript:
		return len(d.Scripts)
	case KindCompliance:
		return len(d.Compliance)
	case KindApp:
		return len(d.Apps)
	}
	return 0
}

// Total returns the number of items across all kinds.
func (d AllData) Total() int {
	return len(d.Profiles) + len(d.Scripts) + len(d.Compliance) + len(d.Apps)
}

// Find looks an item up by key.
func (d AllData) Find(key ItemKey) (Item, bool) {
	for _, item := range d.Items(key.Kind) {
		if item.Key().ID == key.ID {
			return item, true
		}
	}
	return nil, false
}

// ExportData is a selection of All-Data stamped with export metadata.
type ExportData struct {
	AllData
	ExportedAt time.Time `json:"exportedAt"`
	ExportedBy string    `json:"exportedBy"`
}

func asItems[T Item](items []T) []Item {
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out
}
