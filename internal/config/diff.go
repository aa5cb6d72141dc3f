package config

import "slices"

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// CallChanged is true if any hot-reloadable call tuning field changed.
	CallChanged bool
	CallChanges CallDiff

	// SweepChanged is true if the stale-call reclaim tuning changed.
	SweepChanged bool
}

// CallDiff describes which call tuning fields changed between two configs.
// Changes apply to calls accepted after the reload; in-flight calls keep
// the settings they started with.
type CallDiff struct {
	GreetingChanged       bool
	FarewellChanged       bool
	EndPhrasesChanged     bool
	SettleIntervalChanged bool
	DrainTimeoutChanged   bool
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	d.CallChanges = diffCall(&old.Call, &new.Call)
	d.CallChanged = d.CallChanges != (CallDiff{})

	if old.Conversations.SweepInterval != new.Conversations.SweepInterval ||
		old.Conversations.MaxCallAge != new.Conversations.MaxCallAge {
		d.SweepChanged = true
	}

	return d
}

func diffCall(old, new *CallConfig) CallDiff {
	return CallDiff{
		GreetingChanged:       old.Greeting != new.Greeting,
		FarewellChanged:       old.Farewell != new.Farewell,
		EndPhrasesChanged:     !slices.Equal(old.EndPhrases, new.EndPhrases),
		SettleIntervalChanged: old.SettleInterval != new.SettleInterval,
		DrainTimeoutChanged:   old.DrainTimeout != new.DrainTimeout,
	}
}
