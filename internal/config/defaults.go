package config

const (
	defaultDataDir      = "~/.local/share/streampay"
	defaultLogDir       = "~/.local/share/streampay/logs"
	defaultAPIBind      = "127.0.0.1:7591"
	defaultEnvironment  = EnvironmentLocal
	defaultUnitSymbol   = "units"
	defaultUnitDecimals = 9
	defaultLogFormat    = "console"
	defaultLogLevel     = "info"
)

// Known ledger environments.
const (
	EnvironmentLocal   = "local"
	EnvironmentTestnet = "testnet"
)

// MaxUnitDecimals bounds unit_decimals so whole-unit amounts stay representable
// in 64-bit base units.
const MaxUnitDecimals = 12

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Network: Network{
			Environment:  defaultEnvironment,
			UnitSymbol:   defaultUnitSymbol,
			UnitDecimals: defaultUnitDecimals,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
