package buildconfig

// Build-time variables injected via ldflags
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = ""
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// UserAgent identifies this service on outbound calls to the AI backend.
func UserAgent() string {
	return "outreach-api/" + version
}

// VersionInfo is served by the health endpoint.
func VersionInfo() map[string]string {
	info := map[string]string{
		"version": version,
		"commit":  commit,
	}
	if buildDate != "" {
		info["build_date"] = buildDate
	}
	return info
}
