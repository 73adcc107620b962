// Package cli implements the schema-diff command line interface.
package cli
