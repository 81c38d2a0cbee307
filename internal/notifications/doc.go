// Package notifications delivers push notifications for pipeline checkpoints
// via ntfy. When no topic is configured, a noop implementation is used so
// callers never need to branch.
package notifications
