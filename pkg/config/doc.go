// Package config loads reciper's settings. Sources are layered, later ones
// winning: embedded defaults, the user config file, the project's
// .reciper.toml, an explicit file and finally RECIPER_* environment
// variables.
package config
