// Package notify formats and delivers the single terminal outcome message
// for labeled tasks. Delivery is fire-and-forget with respect to the task
// retry loop: a failed delivery is logged, never pushed back through the
// retry mechanism, so a notification-transport hiccup can never re-run a
// download.
package notify
