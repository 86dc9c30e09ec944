// Package proxy lets managed code call host callbacks through interfaces
// implemented by managed dynamic proxies.
//
// Every proxy is backed by a managed dispatcher that forwards each
// invocation, tagged with the proxy's id, to one native entry point. The
// entry point runs on the invoking managed thread: it posts the call to the
// host Scheduler and blocks until the host completes it exactly once with
// Call.Return or Call.Fail.
//
// A proxy moves through three states:
//
//	Active ──Reset──▶ Daemon ──ClearDaemons──▶ Destroyed
//	   └──────────────Reset──────────────────────▲
//
// A reset proxy is kept as a daemon when it was created with KeepAsDaemon,
// the reset is not forced and its dispatcher is still valid. Daemon proxies
// keep serving managed callers until ClearDaemons tears them down.
package proxy
