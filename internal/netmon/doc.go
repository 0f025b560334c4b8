// Package netmon reports network connectivity to the sync engine.
//
// [ProbeMonitor] answers "are we online" by dialing a TCP endpoint. Once registered it also keeps a background loop
// that re-probes on an interval and whenever a watched file changes (e.g. /etc/resolv.conf after a network switch),
// and streams state changes to any open [ProbeMonitor.NetworkState] sequence.
//
// [StaticMonitor] always gives the same answer and backs the CLI's --offline flag.
package netmon
