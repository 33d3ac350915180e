// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across quizchat.
//
//   - AtomicWriteFile: crash-safe file writing with fsync, used for
//     result exports so a crash never leaves a torn file
//   - TruncateRunes: UTF-8 safe string truncation for display
package util
