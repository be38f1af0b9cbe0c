package store

import (
	"bytes"
	"encoding/json"
)

// TaskType classifies a work item.
type TaskType string

const (
	TaskTypeNew    TaskType = "new"
	TaskTypeUpdate TaskType = "update"
	TaskTypeBoth   TaskType = "both"
)

// Valid reports whether t is one of the known task types.
func (t TaskType) Valid() bool {
	switch t {
	case TaskTypeNew, TaskTypeUpdate, TaskTypeBoth:
		return true
	}
	return false
}

// ImpliesUpdate reports whether the task touches existing code.
func (t TaskType) ImpliesUpdate() bool {
	return t == TaskTypeUpdate || t == TaskTypeBoth
}

// ClarityStatus tells whether a task can be planned directly.
type ClarityStatus string

const (
	ClarityClear     ClarityStatus = "clear"
	ClarityAmbiguous ClarityStatus = "ambiguous"
)

// CodebaseFinding links a task keyword to an existing file.
type CodebaseFinding struct {
	File    string `json:"file"`
	Keyword string `json:"keyword"`
	URL     string `json:"url"`
}

// Question is a clarifying question for the task author.
// A bare JSON string decodes as a question without explanation.
type Question struct {
	Question    string `json:"question"`
	Explanation string `json:"explanation"`
}

func (q *Question) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] != '{' {
		*q = Question{Question: literalText(trimmed)}
		return nil
	}
	type question Question
	var decoded question
	if err := decodeTolerant(data, &decoded); err != nil {
		return err
	}
	*q = Question(decoded)
	return nil
}

// Classification is the output of the first pipeline phase.
type Classification struct {
	TaskType         TaskType          `json:"task_type"`
	Keywords         []string          `json:"keywords"`
	Reasoning        string            `json:"reasoning,omitempty"`
	Status           ClarityStatus     `json:"status"`
	Analysis         string            `json:"analysis,omitempty"`
	Questions        []Question        `json:"questions"`
	CodebaseFindings []CodebaseFinding `json:"codebase_findings"`
}

// Subtask is one actionable step of a plan. Members the model adds beyond
// the known ones are kept in Extra and written back on marshal.
type Subtask struct {
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	AssignedTo   string         `json:"assigned_to"`
	Deadline     Text           `json:"deadline"`
	Output       string         `json:"output"`
	ClarityScore Score          `json:"clarity_score"`
	Extra        map[string]any `json:"-"`
}

var subtaskFields = []string{"title", "description", "assigned_to", "deadline", "output", "clarity_score"}

func (s *Subtask) UnmarshalJSON(data []byte) error {
	type subtask Subtask
	var decoded subtask
	if err := decodeTolerant(data, &decoded); err != nil {
		return err
	}
	*s = Subtask(decoded)
	s.Extra = extraFields(data, subtaskFields...)
	return nil
}

func (s Subtask) MarshalJSON() ([]byte, error) {
	type subtask Subtask
	return marshalWithExtra(subtask(s), s.Extra)
}

// Plan is the output of the second pipeline phase. It is passed through as
// the model produced it, extra members included.
type Plan struct {
	MainTask string         `json:"main_task"`
	Goal     string         `json:"goal"`
	TaskType TaskType       `json:"task_type"`
	Subtasks []Subtask      `json:"subtasks"`
	Extra    map[string]any `json:"-"`
}

var planFields = []string{"main_task", "goal", "task_type", "subtasks"}

func (p *Plan) UnmarshalJSON(data []byte) error {
	type plan Plan
	var decoded plan
	if err := decodeTolerant(data, &decoded); err != nil {
		return err
	}
	*p = Plan(decoded)
	p.Extra = extraFields(data, planFields...)
	return nil
}

func (p Plan) MarshalJSON() ([]byte, error) {
	type plan Plan
	return marshalWithExtra(plan(p), p.Extra)
}

var _ json.Unmarshaler = (*Plan)(nil)
var _ json.Marshaler = Plan{}
