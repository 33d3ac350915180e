// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea front end for a quiz session.

The Model owns the terminal layout (header, scrollable transcript,
input line, status bar) and drives a quiz.Engine through the Bubble Tea
event loop. User keystrokes never call the engine directly: pressing
enter hands the input text to a debounced invoker, and only when the
debounce window settles does the turn reach the engine. Rapid submits
therefore coalesce into one gateway call carrying the last text.

The debounce timer fires on its own goroutine, outside the Bubble Tea
loop. The fired text crosses back into the loop over a channel that a
long-lived command listens on, so all state mutation stays inside
Update.

Assistant replies render through glamour when the terminal supports it;
scripted questions and user answers use plain lipgloss bubbles.
*/
package chat
