package config

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		LogLevel:    "warn",
		LogFormat:   "text",
		WaitTimeout: 5000, // 5 seconds
		Verbose:     BoolPtr(false),
		NoColor:     BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.LogLevel == defaults.LogLevel &&
		c.LogFormat == defaults.LogFormat &&
		c.WaitTimeout == defaults.WaitTimeout &&
		c.GetVerbose() == defaults.GetVerbose() &&
		c.GetNoColor() == defaults.GetNoColor()
}
