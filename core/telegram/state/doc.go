// Package state keeps per-conversation navigation history: the stack of
// displayed screens, scratch data owned by handlers and the FSM state of the
// conversation. Sessions are plain values loaded from and saved to a Store;
// callers serialize access per conversation.
package state
