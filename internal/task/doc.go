// Package task runs guarded dashboard requests in the background.
//
// A Job pairs a request with the TaskID that guards it. The Runner claims the
// TaskID, queues the job for the worker pool, sends the request, releases the
// TaskID and reports the result both as an Outcome and as a notification.
package task
