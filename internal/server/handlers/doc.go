// Package handlers implements the termsite HTTP API on top of the session store.
package handlers
