// Package registry maps entity types to the icon handle, raw icon path and
// hierarchy level used when rendering graph nodes.
package registry

import "strings"

// Entry describes how one entity type is drawn.
type Entry struct {
	Icon    string
	RawIcon string
	Level   int
}

// DefaultLevel is reported for entity types the registry does not know.
const DefaultLevel = 1

const iconRoot = "/static/images/leaflet/"

func entry(icon string, level int) Entry {
	return Entry{
		Icon:    icon,
		RawIcon: iconRoot + icon + ".svg",
		Level:   level,
	}
}

var entries = map[string]Entry{
	// STIX domain objects
	"Attack-Pattern":     entry("attack-pattern", 1),
	"Campaign":           entry("campaign", 1),
	"Note":               entry("note", 2),
	"Observed-Data":      entry("observed-data", 1),
	"Opinion":            entry("opinion", 1),
	"Report":             entry("report", 2),
	"Course-Of-Action":   entry("course-of-action", 1),
	"Individual":         entry("individual", 1),
	"Organization":       entry("organization", 1),
	"Sector":             entry("sector", 1),
	"System":             entry("system", 1),
	"Indicator":          entry("indicator", 1),
	"Infrastructure":     entry("infrastructure", 1),
	"Intrusion-Set":      entry("intrusion-set", 1),
	"City":               entry("city", 1),
	"Country":            entry("country", 1),
	"Region":             entry("region", 1),
	"Position":           entry("position", 1),
	"Malware":            entry("malware", 1),
	"Threat-Actor":       entry("threat-actor", 1),
	"Tool":               entry("tool", 1),
	"Vulnerability":      entry("vulnerability", 1),
	"Incident":           entry("incident", 1),
	"Kill-Chain-Phase":   entry("kill-chain-phase", 1),
	"Marking-Definition": entry("marking-definition", 1),
	"External-Reference": entry("external-reference", 1),
	"Label":              entry("label", 1),

	// STIX cyber observables
	"Autonomous-System":               entry("autonomous-system", 1),
	"Directory":                       entry("directory", 1),
	"Domain-Name":                     entry("domain-name", 1),
	"Email-Addr":                      entry("email-addr", 1),
	"Email-Message":                   entry("email-message", 1),
	"Email-Mime-Part-Type":            entry("email-mime-part-type", 1),
	"Artifact":                        entry("artifact", 1),
	"StixFile":                        entry("file", 1),
	"X509-Certificate":                entry("x509-certificate", 1),
	"IPv4-Addr":                       entry("ipv4-addr", 1),
	"IPv6-Addr":                       entry("ipv6-addr", 1),
	"Mac-Addr":                        entry("mac-addr", 1),
	"Mutex":                           entry("mutex", 1),
	"Network-Traffic":                 entry("network-traffic", 1),
	"Process":                         entry("process", 1),
	"Software":                        entry("software", 1),
	"Url":                             entry("url", 1),
	"User-Account":                    entry("user-account", 1),
	"Windows-Registry-Key":            entry("windows-registry-key", 1),
	"Windows-Registry-Value-Type":     entry("windows-registry-value-type", 1),
	"X-OpenCTI-Cryptographic-Key":     entry("cryptographic-key", 1),
	"X-OpenCTI-Cryptocurrency-Wallet": entry("cryptocurrency-wallet", 1),
	"X-OpenCTI-Hostname":              entry("hostname", 1),
	"X-OpenCTI-Text":                  entry("text", 1),
	"X-OpenCTI-User-Agent":            entry("user-agent", 1),

	// OSCAL assets and risk management
	"hardware":              entry("hardware", 1),
	"software":              entry("software", 1),
	"network":               entry("network", 1),
	"computing-device":      entry("hardware", 1),
	"operating-system":      entry("software", 1),
	"application-software":  entry("software", 1),
	"information-system":    entry("information-system", 2),
	"information-type":      entry("information-type", 1),
	"component":             entry("component", 1),
	"inventory-item":        entry("inventory-item", 1),
	"risk":                  entry("risk", 2),
	"poam":                  entry("poam", 3),
	"poam-item":             entry("poam-item", 2),
	"party":                 entry("party", 1),
	"location":              entry("location", 1),
	"oscal-location":        entry("location", 1),
	"oscal-party":           entry("party", 1),
	"oscal-role":            entry("role", 1),
	"oscal-user":            entry("user", 1),
	"task":                  entry("task", 1),
	"observation":           entry("observation", 1),
	"risk-response":         entry("risk-response", 1),
	"mitigating-factor":     entry("mitigating-factor", 1),
	"characterization":      entry("characterization", 1),
	"evidence":              entry("evidence", 1),
	"assessment-platform":   entry("assessment-platform", 1),
	"assessment-subject":    entry("assessment-subject", 1),
	"required-asset":        entry("required-asset", 1),
	"vulnerability-finding": entry("vulnerability", 1),

	"relationship": entry("relationship", 1),
}

var palette = map[string]string{
	"Attack-Pattern":        "#d4e157",
	"Campaign":              "#8e24aa",
	"Note":                  "#455a64",
	"Observed-Data":         "#00acc1",
	"Opinion":               "#1976d2",
	"Report":                "#4caf50",
	"Course-Of-Action":      "#8bc34a",
	"Individual":            "#9c27b0",
	"Organization":          "#3880b7",
	"Sector":                "#0d47a1",
	"System":                "#076fad",
	"Indicator":             "#ffc107",
	"Infrastructure":        "#651fff",
	"Intrusion-Set":         "#bf360c",
	"City":                  "#004d40",
	"Country":               "#1b5e20",
	"Region":                "#33691e",
	"Position":              "#827717",
	"Malware":               "#e91e63",
	"Threat-Actor":          "#880e4f",
	"Tool":                  "#283593",
	"Vulnerability":         "#795548",
	"Incident":              "#f44336",
	"Kill-Chain-Phase":      "#3949ab",
	"Marking-Definition":    "#ffffff",
	"Label":                 "#006064",
	"Stix-Cyber-Observable": "#90caf9",
	"StixFile":              "#90caf9",
	"IPv4-Addr":             "#90caf9",
	"IPv6-Addr":             "#90caf9",
	"Domain-Name":           "#90caf9",
	"Url":                   "#90caf9",

	"hardware":           "#2196f3",
	"software":           "#009688",
	"network":            "#3f51b5",
	"information-system": "#673ab7",
	"component":          "#00bcd4",
	"inventory-item":     "#03a9f4",
	"risk":               "#f44336",
	"poam":               "#ff5722",
	"poam-item":          "#ff7043",
	"party":              "#9c27b0",
	"location":           "#4caf50",
	"task":               "#607d8b",
	"observation":        "#cddc39",

	"relationship": "#616161",
}

const (
	// FallbackColor is used for unknown types when a neutral default is requested.
	FallbackColor = "#ff9800"
	// UnknownColor is used for unknown types otherwise.
	UnknownColor = "#5d4037"
)

// Lookup returns the registry entry for an exact entity type.
func Lookup(entityType string) (Entry, bool) {
	e, ok := entries[entityType]
	return e, ok
}

// Icon returns the icon handle for entityType, or "" when unknown.
func Icon(entityType string) string {
	return entries[entityType].Icon
}

// RawIcon returns the raw icon path for entityType, or "" when unknown.
func RawIcon(entityType string) string {
	return entries[entityType].RawIcon
}

// Level returns the hierarchy level for entityType.
func Level(entityType string) int {
	if e, ok := entries[entityType]; ok {
		return e.Level
	}
	return DefaultLevel
}

// ItemColor returns the palette color of an entity type. Lookups retry with
// the lower-cased type so OSCAL types match regardless of casing.
func ItemColor(entityType string, useDefault bool) string {
	if c, ok := palette[entityType]; ok {
		return c
	}
	if c, ok := palette[strings.ToLower(entityType)]; ok {
		return c
	}
	if useDefault {
		return FallbackColor
	}
	return UnknownColor
}

// Types returns every registered entity type.
func Types() []string {
	types := make([]string, 0, len(entries))
	for t := range entries {
		types = append(types, t)
	}
	return types
}
