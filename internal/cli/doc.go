// Package cli wires the lingopop commands and their configuration. The root
// command launches the GUI; subcommands look up words, manage the saved
// library, import word lists, write stories and list provider models.
package cli
