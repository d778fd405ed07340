package benchmark

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/casualjim/swekit/swe"
	"github.com/goccy/go-json"
)

// Instance is one SWE-bench task.
type Instance struct {
	InstanceID             string `json:"instance_id"`
	Repo                   string `json:"repo"`
	BaseCommit             string `json:"base_commit"`
	ProblemStatement       string `json:"problem_statement"`
	HintsText              string `json:"hints_text,omitempty"`
	Version                string `json:"version,omitempty"`
	EnvironmentSetupCommit string `json:"environment_setup_commit,omitempty"`
	TestCommand            string `json:"test_command,omitempty"`
}

// Issue turns the instance into the issue handed to the agents.
func (i Instance) Issue(includeHints bool) swe.Issue {
	desc := i.ProblemStatement
	if includeHints && strings.TrimSpace(i.HintsText) != "" {
		desc += "\n\nHints:\n" + i.HintsText
	}
	return swe.Issue{
		InstanceID:  i.InstanceID,
		RepoName:    i.Repo,
		Description: desc,
		TestCommand: i.TestCommand,
		BaseCommit:  i.BaseCommit,
	}
}

// LoadDataset reads a JSON array or JSON lines file of instances.
func LoadDataset(path string) ([]Instance, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	insts, err := ReadDataset(f)
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	return insts, nil
}

// ReadDataset decodes instances from r. A leading '[' selects a JSON array,
// anything else is read as one instance per line.
func ReadDataset(r io.Reader) ([]Instance, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if first == '[' {
		var insts []Instance
		if err := json.NewDecoder(br).Decode(&insts); err != nil {
			return nil, err
		}
		return insts, nil
	}

	var insts []Instance
	sc := bufio.NewScanner(br)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var inst Instance
		if err := json.Unmarshal(b, &inst); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		insts = append(insts, inst)
	}
	return insts, sc.Err()
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if b == ' ' || b == '\t' || b == '\n' || b == '\r' {
			continue
		}
		return b, br.UnreadByte()
	}
}

// SelectInstances keeps the instances in split and, when ids are given, only
// those ids. Dataset order is preserved.
func SelectInstances(insts []Instance, split Split, ids []string) []Instance {
	start := min(split.Start, len(insts))
	end := min(split.End, len(insts))
	window := insts[start:end]
	if len(ids) == 0 {
		return slices.Clone(window)
	}
	var out []Instance
	for _, inst := range window {
		if slices.Contains(ids, inst.InstanceID) {
			out = append(out, inst)
		}
	}
	return out
}
