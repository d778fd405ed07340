package workspace

import (
	"context"

	"github.com/casualjim/swekit/tool"
)

// Toolset selects groups of actions exposed to an agent.
type Toolset uint8

const (
	// Navigation reads the repository: tree, open, scroll, list, find, search, cd.
	Navigation Toolset = 1 << iota
	// Editing changes files and produces the patch.
	Editing
	// Analysis inspects classes and methods.
	Analysis
	// Shell runs arbitrary commands.
	Shell
)

// Has reports whether every group in other is part of s.
func (s Toolset) Has(other Toolset) bool {
	return s&other == other
}

type actionTool struct {
	action      Action
	set         Toolset
	description string
	parameters  []string
	build       func(run func(context.Context, map[string]any) (string, error)) any
}

// run executes the action and renders the response for the model. Transport
// errors are returned so the executor reports them as tool errors.
func run(ex Executor, id string, action Action) func(context.Context, map[string]any) (string, error) {
	return func(ctx context.Context, params map[string]any) (string, error) {
		resp, err := ex.Execute(ctx, id, action, params)
		if err != nil {
			return "", err
		}
		return resp.String(), nil
	}
}

var actionTools = []actionTool{
	{
		action:      ActionGitRepoTree,
		set:         Navigation | Editing,
		description: "Generate the tree of the git repository and write it to git_repo_tree.txt in the repository root.",
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context) (string, error) {
				return r(ctx, nil)
			}
		},
	},
	{
		action:      ActionOpenFile,
		set:         Navigation | Editing,
		description: "Open a file and show a window of 100 lines starting at line_number (0 for the top).",
		parameters:  []string{"file_path", "line_number"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, filePath string, lineNumber int) (string, error) {
				return r(ctx, map[string]any{"file_path": filePath, "line_number": lineNumber})
			}
		},
	},
	{
		action:      ActionScroll,
		set:         Navigation | Editing,
		description: "Scroll the open file up or down by the given number of lines.",
		parameters:  []string{"direction", "lines"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, direction string, lines int) (string, error) {
				if direction == "" {
					direction = "down"
				}
				if lines <= 0 {
					lines = 100
				}
				return r(ctx, map[string]any{"direction": direction, "lines": lines})
			}
		},
	},
	{
		action:      ActionListFiles,
		set:         Editing,
		description: "List the files in the current working directory.",
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context) (string, error) {
				return r(ctx, nil)
			}
		},
	},
	{
		action:      ActionChangeWorkDir,
		set:         Editing,
		description: "Change the working directory of the file tools.",
		parameters:  []string{"path"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, path string) (string, error) {
				return r(ctx, map[string]any{"path": path})
			}
		},
	},
	{
		action:      ActionSearchWord,
		set:         Navigation | Editing,
		description: "Search for a word in the files matching pattern, relative to the working directory.",
		parameters:  []string{"word", "pattern"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, word, pattern string) (string, error) {
				params := map[string]any{"word": word}
				if pattern != "" {
					params["pattern"] = pattern
				}
				return r(ctx, params)
			}
		},
	},
	{
		action:      ActionFindFile,
		set:         Editing,
		description: "Find files whose name matches pattern.",
		parameters:  []string{"pattern"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, pattern string) (string, error) {
				return r(ctx, map[string]any{"pattern": pattern})
			}
		},
	},
	{
		action:      ActionEditFile,
		set:         Editing,
		description: "Replace the lines start_line to end_line (inclusive, 1-based) of the file with text.",
		parameters:  []string{"file_path", "text", "start_line", "end_line"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, filePath, text string, startLine, endLine int) (string, error) {
				return r(ctx, map[string]any{
					"file_path":  filePath,
					"text":       text,
					"start_line": startLine,
					"end_line":   endLine,
				})
			}
		},
	},
	{
		action:      ActionCreateFile,
		set:         Editing,
		description: "Create a new file, or a directory when is_directory is true.",
		parameters:  []string{"path", "is_directory"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, path string, isDirectory bool) (string, error) {
				return r(ctx, map[string]any{"path": path, "is_directory": isDirectory})
			}
		},
	},
	{
		action:      ActionWrite,
		set:         Editing,
		description: "Overwrite a file with text.",
		parameters:  []string{"file_path", "text"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, filePath, text string) (string, error) {
				return r(ctx, map[string]any{"file_path": filePath, "text": text})
			}
		},
	},
	{
		action:      ActionGitPatch,
		set:         Navigation | Editing,
		description: "Generate the git patch of all changes, including the listed new files.",
		parameters:  []string{"new_file_paths"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, newFilePaths []string) (string, error) {
				params := map[string]any{}
				if len(newFilePaths) > 0 {
					params["new_file_paths"] = newFilePaths
				}
				return r(ctx, params)
			}
		},
	},
	{
		action:      ActionGetClassInfo,
		set:         Analysis,
		description: "Describe a class: its file, methods and docstring.",
		parameters:  []string{"class_name"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, className string) (string, error) {
				return r(ctx, map[string]any{"class_name": className})
			}
		},
	},
	{
		action:      ActionGetMethodBody,
		set:         Analysis,
		description: "Return the source of a method. Leave class_name empty for module level functions.",
		parameters:  []string{"class_name", "method_name"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, className, methodName string) (string, error) {
				return r(ctx, map[string]any{"class_name": className, "method_name": methodName})
			}
		},
	},
	{
		action:      ActionGetMethodSignature,
		set:         Analysis,
		description: "Return the signature of a method. Leave class_name empty for module level functions.",
		parameters:  []string{"class_name", "method_name"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, className, methodName string) (string, error) {
				return r(ctx, map[string]any{"class_name": className, "method_name": methodName})
			}
		},
	},
	{
		action:      ActionExecCommand,
		set:         Shell,
		description: "Run a shell command in the workspace and return its output.",
		parameters:  []string{"cmd"},
		build: func(r func(context.Context, map[string]any) (string, error)) any {
			return func(ctx context.Context, cmd string) (string, error) {
				return r(ctx, map[string]any{"cmd": cmd})
			}
		},
	},
}

// Tools returns the actions of set as tool definitions bound to workspace id.
func Tools(ex Executor, id string, set Toolset) []tool.Definition {
	var defs []tool.Definition
	for _, at := range actionTools {
		if at.set&set == 0 {
			continue
		}
		defs = append(defs, tool.Must(
			at.build(run(ex, id, at.action)),
			tool.Name(at.action.String()),
			tool.Description(at.description),
			tool.Parameters(at.parameters...),
		))
	}
	return defs
}
