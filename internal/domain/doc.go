// Package domain contains the core media types and error taxonomy shared
// across the task pipeline. Domain results are produced by task bodies as a
// tagged union so that downstream components (notification dispatcher,
// result backend) never inspect upstream client types directly.
package domain
