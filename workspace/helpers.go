package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoPatchData means FILETOOL_GIT_PATCH succeeded without returning data.
	ErrNoPatchData = errors.New("no data found in the patch response")
	// ErrEmptyPatch means the workspace has no changes to diff.
	ErrEmptyPatch = errors.New("no patch found in the response data")
)

// ActionError is an action that ran but reported failure.
type ActionError struct {
	Action  Action
	Message string
}

func (e *ActionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: unknown error occurred", e.Action)
	}
	return fmt.Sprintf("%s: %s", e.Action, e.Message)
}

// GitRepoTree writes the repository tree to git_repo_tree.txt in the workspace.
func GitRepoTree(ctx context.Context, ex Executor, id string) (Response, error) {
	return ex.Execute(ctx, id, ActionGitRepoTree, nil)
}

// Exec runs a shell command.
func Exec(ctx context.Context, ex Executor, id, cmd string) (Response, error) {
	return ex.Execute(ctx, id, ActionExecCommand, map[string]any{"cmd": cmd})
}

// ChangeDir changes the working directory of the file tools.
func ChangeDir(ctx context.Context, ex Executor, id, path string) (Response, error) {
	return ex.Execute(ctx, id, ActionChangeWorkDir, map[string]any{"path": path})
}

// GitPatch returns the diff of the working directory. A failed action yields
// an *ActionError, a response without data ErrNoPatchData, and an empty diff
// either the error the service reported next to it or ErrEmptyPatch.
func GitPatch(ctx context.Context, ex Executor, id string, newFiles ...string) (string, error) {
	params := map[string]any{}
	if len(newFiles) > 0 {
		params["new_file_paths"] = newFiles
	}
	resp, err := ex.Execute(ctx, id, ActionGitPatch, params)
	if err != nil {
		return "", err
	}
	if !resp.Successful {
		return "", &ActionError{Action: ActionGitPatch, Message: resp.Error}
	}
	if !resp.Data.Exists() || !resp.Data.IsObject() || len(resp.Data.Map()) == 0 {
		return "", ErrNoPatchData
	}
	patch := resp.Data.Get("patch").String()
	if strings.TrimSpace(patch) == "" {
		if msg := resp.Data.Get("error").String(); msg != "" {
			return "", &ActionError{Action: ActionGitPatch, Message: msg}
		}
		return "", ErrEmptyPatch
	}
	return patch, nil
}
