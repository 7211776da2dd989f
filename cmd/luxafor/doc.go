// Package main hosts the luxafor CLI entrypoint and command graph.
//
// Without flags the command runs watch mode, mirroring the desktop
// do-not-disturb setting on the flag until interrupted. --set, --toggle and
// --color run a single update and exit. Subcommands cover configuration
// scaffolding, the transition history, and a readiness report.
package main
