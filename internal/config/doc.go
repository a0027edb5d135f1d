// Package config loads the settings of the keybind command.
//
// Settings are read with viper from, in increasing priority:
//
//   - built-in defaults (Default)
//   - an optional keybind.{toml,yaml,json} in the user config directory or
//     the working directory, or the file named by --config
//   - KEYBIND_* environment variables (KEYBIND_LOG_LEVEL, KEYBIND_KEYMAPS, ...)
//   - command-line flags bound to the same keys
//
// A loaded Config converts into engine options, a logging configuration
// and the list of keymap files to load.
package config
