// Package executor runs an agent against a conversation thread until it answers.
//
// A run is a reactor loop: render the agent's instructions, ask the model for a
// completion, and either finish on an assistant message or execute the requested tools
// and ask again. A tool that returns another api.Agent hands the conversation to that
// agent for the rest of the run.
//
//	cmd, err := executor.NewRunCommand(engineer, thread, events.Log(nil))
//	if err != nil {
//	    return err
//	}
//	res, err := executor.NewLocal().Run(ctx, cmd.WithMaxTurns(30))
//
// Tool failures never abort a run. Unknown tools, argument decoding errors, returned
// errors and panics are all reported back to the model as the tool's response, so the
// model can correct itself. Provider errors, instruction rendering errors and running out
// of turns end the run.
//
// The run works on a fork of the command's thread and joins it back when it returns,
// including when it fails, so callers always see the full transcript.
package executor
