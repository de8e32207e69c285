package file

// Configuration keys read from config.toml.
const (
	KeyIdentity            = "identity.id"
	KeyHelperPath          = "host.helper_path"
	KeyProbeCommand        = "host.probe_command"
	KeyStartupGraceSeconds = "host.startup_grace_seconds"
	KeyHostSimulate        = "host.simulate"
	KeyDataDir             = "storage.data_dir"
	KeyCommunityBaseURL    = "community.base_url"
	KeyCommunityRate       = "community.rate_per_second"
	KeyDiagnosticsFile     = "diagnostics.file"
	KeyDaemonAutoIdle      = "daemon.auto_idle"
	KeyDaemonUnlock        = "daemon.unlock"
	KeyDaemonMetricsAddr   = "daemon.metrics_addr"
	KeyMCPPort             = "mcp.port"
)
