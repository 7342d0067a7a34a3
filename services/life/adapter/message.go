// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package adapter

import (
	"context"

	"github.com/AleutianAI/AleutianLife/services/life/engine"
	"github.com/AleutianAI/AleutianLife/services/life/grid"
)

// MessageType names a worker request or reply.
type MessageType string

// Requests.
const (
	TypeRun    MessageType = "run"
	TypeCancel MessageType = "cancel"
	TypeClear  MessageType = "clear"
)

// Replies.
const (
	TypeResult    MessageType = "result"
	TypeError     MessageType = "error"
	TypeProgress  MessageType = "progress"
	TypeCancelled MessageType = "cancelled"
	TypeCleared   MessageType = "cleared"
	TypeCrashed   MessageType = "crashed"
)

// Message is exchanged between the adapter and its worker.
//
// Payload by type:
//
//	| Type      | Payload        |
//	|-----------|----------------|
//	| run       | RunPayload     |
//	| result    | engine.Outcome |
//	| error     | Failure        |
//	| progress  | engine.Progress|
//	| crashed   | error          |
//	| others    | nil            |
type Message struct {
	ID      uint64      `json:"id"`
	Type    MessageType `json:"type"`
	Payload any         `json:"payload,omitempty"`
}

// RunPayload is the body of a run request.
type RunPayload struct {
	Cells       []grid.Cell `json:"cells"`
	Generations int         `json:"generations"`
}

// Failure is the body of an error reply. Outcome holds whatever was
// completed before the error, which is non-empty for cancelled runs.
type Failure struct {
	Outcome engine.Outcome `json:"outcome"`
	Err     error          `json:"-"`
}

// envelope carries a request into the worker together with the caller's
// context, which never crosses the message boundary itself.
type envelope struct {
	msg Message
	ctx context.Context
}
