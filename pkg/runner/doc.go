/*
Package runner implements the interactive loop and I/O orchestration for the calculator engine.

It acts as the bridge between the engine and a terminal or a pipe.
The runner manages session persistence, reads key lines through pluggable
handlers and renders the resulting view after every line.

# Key Components

  - Runner: The main loop. Reads a line, applies its keys, saves, renders.
  - IOHandler: Decouples how views are shown and lines are read (text, JSON lines).
  - TextHandler: A standard implementation for interactive CLI usage.
  - SessionManager: Resumes a named session from a StateStore.

# Usage

	r := runner.NewRunner(
		runner.WithEngine(abacus.New()),
		runner.WithSessionID("desk"),
		runner.WithStore(store),
		runner.WithInputHandler(runner.NewTextHandler(os.Stdin, os.Stdout)),
	)

	if err := r.Run(ctx); err != nil {
		log.Fatal(err)
	}
*/
package runner
