// Package dashboard is a typed client for the alist-sync dashboard API. Every
// call goes through a task.Sender, so the same transport, headers and error
// types apply as for guarded task runs.
package dashboard
