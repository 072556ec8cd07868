// Package config manages the relayctl configuration file.
//
// The file is a JSON object keyed by board serial number. Each entry holds
// an "aliases" object mapping relay bit indices ("0" through "7") to
// human-readable names:
//
//	{
//	  "A7003000": {
//	    "aliases": {
//	      "0": "lamp",
//	      "3": "pump"
//	    }
//	  }
//	}
//
// The tree is kept generic so the `relayctl config` command can set any
// dotted key path (e.g. "A7003000.aliases.3") without the package knowing
// about every key in advance. The whole file is rewritten atomically on
// save.
//
// # File location
//
//   - Linux: $XDG_CONFIG_HOME/relayctl/config.json or $HOME/.config/relayctl/config.json
//   - macOS: $HOME/.config/relayctl/config.json
//   - Windows: %LOCALAPPDATA%\relayctl\config.json
//
// The --config flag overrides the default location.
package config
