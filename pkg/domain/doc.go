/*
Package domain holds the error taxonomy shared by talks, stores and adapters.

  - StorageError: the backing resource failed (wraps ErrTalkNotFound when missing).
  - StateError: directives could not be applied to the current content.
  - ValidationError: the mutated content would not conform to the schema.

Callers branch with errors.As; none of these are retried inside the core.
*/
package domain
