package repo

// StateRepo persists each channel's processed-event state between runs.
//
// Set-keyed channels track opaque processed keys; map-keyed channels track a
// content fingerprint per stable key. Loads never fail: a missing or corrupt
// state file yields an empty state so capture restarts clean rather than
// crashing.
type StateRepo interface {
	LoadSet(channel string) map[string]bool
	SaveSet(channel string, keys map[string]bool) error
	LoadMap(channel string) map[string]string
	SaveMap(channel string, state map[string]string) error
}
