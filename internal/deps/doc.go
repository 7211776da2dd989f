// Package deps checks that external binaries luxafor shells out to are installed.
package deps
