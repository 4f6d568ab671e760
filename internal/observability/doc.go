// Package observability records pipeline lifecycle events as JSON Lines and
// derives run metrics, alerts and notifications from them.
package observability
