// Package announce delivers lifecycle announcements to outside channels:
// the log, Slack, NATS and any combination of them.
package announce
