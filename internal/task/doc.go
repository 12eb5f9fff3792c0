// Package task manages background job queuing, processing, and lifecycle.
// It provides mechanisms for asynchronous execution of long-running media
// downloads, ensuring they don't block inbound message handling, survive
// transient upstream failures through bounded retry, and reach exactly one
// terminal outcome per task.
package task
