/*
Package session implements calculator session management and persistence orchestration.

It serializes key events per session across goroutines (and, with a
DistributedLocker, across replicas), owns the timers that end an error display
after its dwell period, and publishes every visible change to subscribers.
*/
package session
