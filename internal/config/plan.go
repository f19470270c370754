package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
)

// legacyLine matches bash-style assignments such as BILLING_MODE="Sub".
var legacyLine = regexp.MustCompile(`^\s*(BILLING_MODE|BILLING_ICON|SAFETY_MARGIN)="([^"]*)"`)

// LegacyConfigPath returns the pre-TOML billing config written by the hook installer.
func LegacyConfigPath(claudeDir string) string {
	return filepath.Join(claudeDir, "hooks", ".stats-config")
}

// ReadLegacyBilling reads ~/.claude/hooks/.stats-config.
// Returns false if the file is missing or unreadable.
func ReadLegacyBilling(claudeDir string) (BillingConfig, bool) {
	data, err := os.ReadFile(LegacyConfigPath(claudeDir)) //nolint:gosec // path is constructed from known claudeDir
	if err != nil {
		return DefaultBilling(), false
	}
	return ParseLegacyBilling(data), true
}

// ParseLegacyBilling parses the legacy KEY="value" format. Unknown modes and
// non-positive margins fall back to defaults.
func ParseLegacyBilling(data []byte) BillingConfig {
	var b BillingConfig

	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		m := legacyLine.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		switch m[1] {
		case "BILLING_MODE":
			b.Mode = BillingMode(m[2])
		case "BILLING_ICON":
			b.Icon = m[2]
		case "SAFETY_MARGIN":
			if v, err := strconv.ParseFloat(m[2], 64); err == nil {
				b.SafetyMargin = v
			}
		}
	}

	return b.Normalized()
}
