// Package notify provides transient, auto-dismissing user notifications.
//
// The primary components are:
//   - Notifier: the sink interface the guard and the task runner report through
//   - Center: a stack of notifications in arrival order, each dismissed after a
//     fixed interval and removed a short delay later
//   - Handler: presentation components subscribe to a Center to render
//     notifications as they are shown, start dismissing, and are removed
//
// Center is modelled as an in-memory event emitter: it knows nothing about
// how notifications are drawn.
package notify
