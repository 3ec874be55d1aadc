// Package question turns comments into requests.
//
// A Question looks at one comment and answers a Request: Absent when
// the comment holds no command, Later when it holds one that cannot be
// acted on yet, or Resolved with a command type and ordered arguments.
// Questions compose: a combinator wraps another question and calls it
// first, so filters and argument scanners stack without knowing each
// other's vocabulary. Every question is pure and safe for concurrent use.
package question
