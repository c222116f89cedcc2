// Package confloader fills configuration structs from a YAML file and
// environment variables, and watches the file for edits.
//
// Environment variables override the file, which overrides whatever the
// target already holds, so callers pass a struct pre-filled with defaults.
package confloader
