// Package apiclient issues JSON calls against the dashboard HTTP API.
//
// A Client normalizes every outcome into either the raw JSON body of a 2xx
// response or one of two typed errors:
//   - *StatusError: the server answered outside the 2xx range
//   - *TransportError: the request never completed, the body could not be
//     read, or a 2xx body was not valid JSON
//
// The client performs no retries, imposes no timeout of its own and does not
// deduplicate identical in-flight calls. Callers bound a call through the
// context they pass in.
package apiclient
