// Package prompt provides simple interactive prompts.
//
// This package contains standalone interactive prompts for common
// user input scenarios, rendered on stderr so stdout stays pipeable.
//
// Available prompts:
//   - [Confirm]: Yes/No confirmation prompt (used by cache clear)
package prompt
