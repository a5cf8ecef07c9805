// Package channels holds the chat-transport adapters (SPEC_FULL.md §6's
// "concrete bindings" over the dispatcher's opaque inbound/outbound channel
// shapes).
package channels

import "hash/fnv"

// ChatID derives a stable int64 dispatcher chat id from a transport-native
// channel identifier. Telegram's native chat ids are already int64 (the
// original the teacher ports from), but Discord/Slack channel ids are
// snowflakes/opaque strings, so every ADDED adapter hashes its native id down
// to the int64 shape dispatch.Inbound requires.
func ChatID(nativeID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(nativeID))
	return int64(h.Sum64())
}
