/*
Package abacus is a keystroke-driven scientific calculator engine.

It turns a stream of discrete key presses (digits, operators, decimal point,
sign toggle, constants, memory keys and scientific functions) into an
expression buffer, evaluates it with standard precedence, and formats the
result for a narrow display. The engine is a pure state machine: every
session is a plain *domain.State value, and adapters (HTTP, MCP, terminal)
own all I/O.

# Concept

A session moves between three modes. In NORMAL, digits extend the buffer.
After a result, a constant or an error the session is AWAITING_FRESH and the
next digit replaces the buffer. A failed calculation enters ERROR_DISPLAY:
the display shows a short label ("Syntax Error", "Math Error",
"Domain Error") while the logical buffer is already reset to "0".

# Usage

	eng := abacus.New()
	state := eng.Start("session-1")

	ctx := context.Background()
	if err := eng.Input(ctx, state, "12+3*2 ="); err != nil {
		log.Fatal(err) // unknown key label
	}
	fmt.Println(eng.Render(state).Display) // 18

	_ = eng.Input(ctx, state, "ac 90 sin")
	fmt.Println(state.Display()) // 1

Stateless helpers are available for one-shot use:

	result, r := eng.Evaluate("2^3^2")
	if !r.IsOk() {
		log.Println(r.Kind.Label())
	}
*/
package abacus
