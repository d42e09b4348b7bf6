/*
Package domain contains the core domain models of the Abacus calculator.

It defines the calculator session state (expression buffer, memory register,
angle mode), the input keys that drive the state machine, evaluation results,
and the entities persisted by the history service. This package is kept pure
and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - Buffer: the in-progress expression shown on the display.
  - Memory: the single numeric accumulator (MC, MR, M+, M-).
  - State: one calculator session (buffer, memory, angle mode, annotations).
  - Key: a discrete input event (digit, operator, function, command).
  - Result: the tagged outcome of an evaluation (value or error kind).
  - User, Operation: the identity and history records of the REST service.
*/
package domain
