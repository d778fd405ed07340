package workspace

// Action names a remote tool action.
type Action string

const (
	ActionOpenFile      Action = "FILETOOL_OPEN_FILE"
	ActionGitRepoTree   Action = "FILETOOL_GIT_REPO_TREE"
	ActionExecCommand   Action = "SHELLTOOL_EXEC_COMMAND"
	ActionChangeWorkDir Action = "FILETOOL_CHANGE_WORKING_DIRECTORY"
	ActionGitPatch      Action = "FILETOOL_GIT_PATCH"
	ActionListFiles     Action = "FILETOOL_LIST_FILES"
	ActionSearchWord    Action = "FILETOOL_SEARCH_WORD"
	ActionScroll        Action = "FILETOOL_SCROLL"
	ActionEditFile      Action = "FILETOOL_EDIT_FILE"
	ActionCreateFile    Action = "FILETOOL_CREATE_FILE"
	ActionFindFile      Action = "FILETOOL_FIND_FILE"
	ActionWrite         Action = "FILETOOL_WRITE"

	ActionGetClassInfo       Action = "CODE_ANALYSIS_TOOL_GET_CLASS_INFO"
	ActionGetMethodBody      Action = "CODE_ANALYSIS_TOOL_GET_METHOD_BODY"
	ActionGetMethodSignature Action = "CODE_ANALYSIS_TOOL_GET_METHOD_SIGNATURE"
)

func (a Action) String() string {
	return string(a)
}
