// Package workspace talks to the remote tool-execution service. A workspace is
// an isolated container holding a checkout of the repository; agents act on it
// through named actions like FILETOOL_OPEN_FILE or SHELLTOOL_EXEC_COMMAND.
//
// The Client speaks the service's JSON API. The helpers in this package wrap
// the actions the bug-fixing attempts run directly, and Tools exposes the
// actions to agents as tool definitions.
package workspace
