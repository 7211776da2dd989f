package config

const (
	defaultConfigPath          = "~/.config/luxafor/config.toml"
	defaultStateDir            = "~/.local/share/luxafor"
	defaultLogDir              = "~/.local/share/luxafor/logs"
	defaultHistoryPath         = "~/.local/share/luxafor/history.db"
	defaultSysfsRoot           = "/sys"
	defaultDevRoot             = "/dev"
	defaultVendorID            = 0x04d8
	defaultProductID           = 0xf372
	defaultFadeSpeed           = 20
	defaultOffTimeout          = 2
	defaultPresenceCommand     = "gsettings"
	defaultPresenceSchema      = "org.gnome.desktop.notifications"
	defaultPresenceKey         = "show-banners"
	defaultQueryTimeout        = 5
	defaultPollIntervalMS      = 2000
	defaultHistoryRetention    = 30
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
	defaultLogRetentionDays    = 14
	deviceOverrideEnvVar       = "LUXAFOR_DEVICE"
	presenceCommandOverrideEnv = "LUXAFOR_PRESENCE_COMMAND"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Device: Device{
			SysfsRoot:  defaultSysfsRoot,
			DevRoot:    defaultDevRoot,
			VendorID:   defaultVendorID,
			ProductID:  defaultProductID,
			Fade:       true,
			FadeSpeed:  defaultFadeSpeed,
			Hotplug:    true,
			OffTimeout: defaultOffTimeout,
		},
		Presence: Presence{
			Command:      defaultPresenceCommand,
			Schema:       defaultPresenceSchema,
			Key:          defaultPresenceKey,
			QueryTimeout: defaultQueryTimeout,
		},
		Watch: Watch{
			PollIntervalMS: defaultPollIntervalMS,
		},
		History: History{
			Enabled:       true,
			Path:          defaultHistoryPath,
			RetentionDays: defaultHistoryRetention,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
