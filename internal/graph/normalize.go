package graph

import (
	"sort"
	"strings"

	"github.com/rflorenc/intune-workbench/internal/models"
)

const configurationPolicyType = "#microsoft.graph.deviceManagementConfigurationPolicy"

// isProfileMetadata reports whether a device configuration property describes
// the profile rather than configuring the device.
func isProfileMetadata(key string) bool {
	switch key {
	case "id", "displayName", "description", "createdDateTime", "lastModifiedDateTime",
		"version", "roleScopeTagIds", "supportsScopeTags":
		return true
	}
	return strings.HasPrefix(key, "deviceManagementApplicabilityRule") || strings.Contains(key, "@odata")
}

func normalizeConfigurationPolicy(row map[string]any) models.Profile {
	typeTag := firstString(row, configurationPolicyType, "@odata.type")
	platforms := stringField(row, "platforms")
	label := platformsLabel(platforms)
	if platforms == "" {
		label = PlatformLabel(typeTag)
	}

	settings := []models.Setting{}
	if raw, ok := row["settings"].([]any); ok {
		for _, s := range raw {
			entry, ok := s.(map[string]any)
			if !ok {
				continue
			}
			inst := mapField(entry, "settingInstance")
			id := stringField(inst, "settingDefinitionId")
			if id == "" {
				id = stringField(entry, "id")
			}
			var value any = inst
			if inst == nil {
				value = entry
			}
			settings = append(settings, models.Setting{ID: id, Value: value})
		}
	}

	return models.Profile{
		ResourceItem: models.ResourceItem{
			ID:          stringField(row, "id"),
			DisplayName: firstString(row, "Unnamed Profile", "name", "displayName"),
			Description: stringField(row, "description"),
			Kind:        models.KindProfile,
		},
		Platforms:     label,
		TypeTagValue:  typeTag,
		Settings:      settings,
		CreatedAt:     timeField(row, "createdDateTime"),
		ModifiedAt:    timeField(row, "lastModifiedDateTime", "modifiedDateTime"),
		SourceVariant: models.VariantConfigurationPolicy,
	}
}

func normalizeDeviceConfiguration(row map[string]any) models.Profile {
	typeTag := stringField(row, "@odata.type")

	keys := make([]string, 0, len(row))
	for k, v := range row {
		if v == nil || isProfileMetadata(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	settings := make([]models.Setting, 0, len(keys))
	for _, k := range keys {
		settings = append(settings, models.Setting{ID: k, Value: row[k]})
	}

	return models.Profile{
		ResourceItem: models.ResourceItem{
			ID:          stringField(row, "id"),
			DisplayName: firstString(row, "Unnamed Profile", "displayName", "name"),
			Description: stringField(row, "description"),
			Kind:        models.KindProfile,
		},
		Platforms:     PlatformLabel(typeTag),
		TypeTagValue:  typeTag,
		Settings:      settings,
		CreatedAt:     timeField(row, "createdDateTime"),
		ModifiedAt:    timeField(row, "lastModifiedDateTime", "modifiedDateTime"),
		SourceVariant: models.VariantDeviceConfiguration,
	}
}

// scriptPayload returns the payload carried by a script row and whether the
// row carried one at all.
func scriptPayload(row map[string]any) (string, bool) {
	for _, f := range []string{"scriptContent", "detectionScriptContent"} {
		if hasField(row, f) {
			return stringField(row, f), true
		}
	}
	return "", false
}

func normalizeScript(row map[string]any, payload string) models.Script {
	content, state := models.DecodePayload(payload)
	return models.Script{
		ResourceItem: models.ResourceItem{
			ID:          stringField(row, "id"),
			DisplayName: firstString(row, "Unnamed Script", "displayName", "fileName"),
			Description: stringField(row, "description"),
			Kind:        models.KindScript,
		},
		ExecutionContext: stringField(row, "executionContext"),
		RunAsAccount:     stringField(row, "runAsAccount"),
		Payload:          payload,
		Content:          content,
		PayloadState:     state,
		CreatedAt:        timeField(row, "createdDateTime"),
		ModifiedAt:       timeField(row, "lastModifiedDateTime", "modifiedDateTime"),
	}
}

func normalizeCompliance(row map[string]any) models.CompliancePolicy {
	typeTag := stringField(row, "@odata.type")
	return models.CompliancePolicy{
		ResourceItem: models.ResourceItem{
			ID:          stringField(row, "id"),
			DisplayName: firstString(row, "Unnamed Policy", "displayName"),
			Description: stringField(row, "description"),
			Kind:        models.KindCompliance,
		},
		PolicyTypeTag: typeTag,
		PlatformLabel: PlatformLabel(typeTag),
		CreatedAt:     timeField(row, "createdDateTime"),
		ModifiedAt:    timeField(row, "lastModifiedDateTime", "modifiedDateTime"),
		Raw:           row,
	}
}

func normalizeApp(row map[string]any) models.App {
	typeTag := stringField(row, "@odata.type")
	return models.App{
		ResourceItem: models.ResourceItem{
			ID:          stringField(row, "id"),
			DisplayName: firstString(row, "Unnamed App", "displayName"),
			Description: stringField(row, "description"),
			Kind:        models.KindApp,
		},
		Publisher:     stringField(row, "publisher"),
		PolicyTypeTag: typeTag,
		PlatformLabel: PlatformLabel(typeTag),
		PublishedAt:   timeField(row, "publishedDateTime"),
		CreatedAt:     timeField(row, "createdDateTime"),
		ModifiedAt:    timeField(row, "lastModifiedDateTime"),
		Raw:           row,
	}
}
