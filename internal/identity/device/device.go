// Package device turns raw user-agent strings into the short device labels
// stored on sessions and shown in audit trails.
package device

import (
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// ParseUserAgent renders a user-agent string as "Browser on Platform".
func ParseUserAgent(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "Unknown Device"
	}

	ua := useragent.New(raw)
	browser, _ := ua.Browser()
	platform := ua.Platform()
	if ua.OSInfo().Name != "" {
		platform = ua.OSInfo().Name
	}

	switch {
	case browser != "" && platform != "":
		return fmt.Sprintf("%s on %s", browser, platform)
	case browser != "":
		return browser
	case platform != "":
		return platform
	default:
		return "Unknown Device"
	}
}
