// internal/ua/ua.go
//
// User-Agent parsing helpers for the access log.
//
// This wrapper isolates the third-party `github.com/avct/uasurfer` API so
// the rest of the codebase never sees its enums or structs.  The library's
// String() forms carry a type prefix ("BrowserChrome", "OSMacOSX"), which is
// trimmed here.
package ua

import (
	"fmt"
	"strconv"
	"strings"

	surfer "github.com/avct/uasurfer"
)

// Info carries the UA attributes logged per diagnostics request.
//
// Example (curl):
//
//	Browser   "Unknown"
//	OS        "Unknown"
//	Device    "Other"
//	IsBot     false
//
// Device will be one of: "Desktop", "Mobile", "Tablet", or "Other".
type Info struct {
	Browser   string
	Version   string
	OS        string
	OSVersion string
	Device    string
	Platform  string
	IsBot     bool
}

// Parse converts a raw header into an Info struct.
func Parse(raw string) Info {
	ua := surfer.Parse(raw)

	info := Info{
		Browser:   strings.TrimPrefix(ua.Browser.Name.String(), "Browser"),
		Version:   versionToString(ua.Browser.Version),
		OS:        strings.TrimPrefix(ua.OS.Name.String(), "OS"),
		OSVersion: versionToString(ua.OS.Version),
		Platform:  strings.TrimPrefix(ua.OS.Platform.String(), "Platform"),
		IsBot:     ua.IsBot(),
	}

	switch ua.DeviceType {
	case surfer.DeviceComputer:
		info.Device = "Desktop"
	case surfer.DeviceTablet:
		info.Device = "Tablet"
	case surfer.DevicePhone, surfer.DeviceWearable:
		info.Device = "Mobile"
	default:
		info.Device = "Other"
	}

	return info
}

// Label is the compact form written to logs, e.g. "Chrome 125/MacOSX/Desktop".
func (i Info) Label() string {
	b := i.Browser
	if i.Version != "" {
		b += " " + strings.SplitN(i.Version, ".", 2)[0]
	}
	return b + "/" + i.OS + "/" + i.Device
}

// versionToString renders a semantic version in dotted form while trimming
// trailing zeros, e.g. 17.0.0 → "17", 17.3.0 → "17.3", 17.3.1 → "17.3.1".
func versionToString(v surfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	if v.Patch != 0 {
		return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
	}
	if v.Minor != 0 {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return strconv.Itoa(int(v.Major))
}
