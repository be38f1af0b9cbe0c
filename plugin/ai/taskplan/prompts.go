package taskplan

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hrygo/feeta/store"
)

const (
	maxContextModules   = 5
	maxClarityFiles     = 15
	maxPromptFindings   = 5
	noEvidenceWarning   = "WARNING: Task mentions updating existing features, but NO related code was found in the repository!"
	strictJSONReminder  = "Return ONLY valid JSON. No markdown, no code blocks, no extra text.\nDo not use trailing commas. Ensure all strings are properly quoted."
	defaultPlanTaskType = store.TaskTypeNew
)

const typeDetectionTemplate = `Analyze this task with full project context.
%s
Task: "%s"

Determine:
1. Is this adding a NEW feature that doesn't exist?
2. Is this UPDATING/MODIFYING an existing feature?
3. Is it BOTH (adding new + modifying existing)?

Extract keywords that might exist in the codebase (e.g., "dashboard", "payment", "login").

%s

Respond with valid JSON:
{
  "task_type": "new" | "update" | "both",
  "keywords": ["keyword1", "keyword2"],
  "reasoning": "Brief explanation"
}`

const clarityTemplate = `Analyze if this task is clear enough to implement.
%s
Task: "%s"
Task Type: %s
%s
Rules:
1. If task type is "update" or "both" but NO existing code found, ask questions about what exists
2. If task is vague (e.g., "get dashboard ready"), ask specific questions
3. If task is clear and specific, mark it as clear

When asking questions, explain why each question matters.

%s

Respond with valid JSON in this format:
{"status": "clear", "analysis": "Task is clear"}
OR
{
  "status": "ambiguous",
  "questions": [
    {"question": "What specific AI model should be used?", "explanation": "Different models have different capabilities and costs."}
  ]
}`

const planTemplate = `You are a senior project manager. Create a detailed implementation plan.

Task: "%s"
Task Type: %s
%s
Instructions:
- If task type is "new": Create a plan for building from scratch
- If task type is "update": Focus on modifying existing code in the files listed
- If task type is "both": Plan for both new features and modifications

Create 5-7 specific subtasks with:
- Clear, actionable title
- Detailed description
- Suggested role (Frontend Dev, Backend Dev, Designer, etc.)
- Realistic deadline (Day 1, Day 2, etc.)
- Expected output/deliverable
- Clarity score (0-100)

Return ONLY valid JSON:
{
  "main_task": "Task Title",
  "goal": "What we're achieving",
  "task_type": "%s",
  "subtasks": [
    {
      "title": "Subtask name",
      "description": "Detailed steps",
      "assigned_to": "Role",
      "deadline": "Day X",
      "output": "Deliverable",
      "clarity_score": 95
    }
  ]
}`

func buildTypeDetectionPrompt(task string, pc *store.ProjectContext) string {
	return fmt.Sprintf(typeDetectionTemplate, projectContextSection(pc), task, strictJSONReminder)
}

// projectContextSection renders the deep context for type detection.
func projectContextSection(pc *store.ProjectContext) string {
	if pc == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\nProject Context:\n")
	fmt.Fprintf(&b, "- Summary: %s\n", orNA(pc.ProjectSummary))
	fmt.Fprintf(&b, "- Architecture: %s\n", orNA(pc.ArchitectureOverview))
	fmt.Fprintf(&b, "- Tech Stack: %s, %s\n", orNA(pc.TechStack.Language), orNA(pc.TechStack.FrameworkBackend))
	if len(pc.KeyModules) > 0 {
		b.WriteString("\nKey Modules:\n")
		for i, m := range pc.KeyModules {
			if i == maxContextModules {
				break
			}
			fmt.Fprintf(&b, "- %s: %s\n", m.ModuleName, m.Description)
		}
	}
	return b.String()
}

func buildClarityPrompt(task string, taskType store.TaskType, pc *store.ProjectContext, findings []store.CodebaseFinding) string {
	return fmt.Sprintf(clarityTemplate,
		repositorySection(pc), task, taskType, findingsSection(taskType, findings), strictJSONReminder)
}

// repositorySection lists key-module files and the tech stack for the clarity step.
func repositorySection(pc *store.ProjectContext) string {
	if pc == nil {
		return ""
	}
	var files []string
	for _, m := range pc.KeyModules {
		for _, f := range m.RelevantFiles {
			if len(files) == maxClarityFiles {
				break
			}
			files = append(files, f)
		}
	}
	var stack []string
	ts := pc.TechStack
	for _, s := range []string{ts.Language, ts.FrameworkBackend, ts.FrameworkFrontend, ts.Database} {
		if s != "" {
			stack = append(stack, s)
		}
	}
	stack = append(stack, ts.KeyLibraries...)

	return fmt.Sprintf("\nRepository Info:\n- Files: %s\n- Tech Stack: %s\n",
		strings.Join(files, ", "), strings.Join(stack, ", "))
}

func findingsSection(taskType store.TaskType, findings []store.CodebaseFinding) string {
	if len(findings) == 0 {
		if taskType.ImpliesUpdate() {
			return "\n" + noEvidenceWarning + "\n"
		}
		return ""
	}
	var b strings.Builder
	b.WriteString("\nExisting Code Found:\n")
	for i, f := range findings {
		if i == maxPromptFindings {
			break
		}
		fmt.Fprintf(&b, "- %s (contains '%s')\n", f.File, f.Keyword)
	}
	return b.String()
}

func buildPlanPrompt(task string, taskType store.TaskType, answers map[string]any, findings []store.CodebaseFinding, team []string) string {
	var extra strings.Builder
	if len(answers) > 0 {
		extra.WriteString("\nClarifications:\n")
		extra.WriteString(renderAnswers(answers))
	}
	if len(findings) > 0 {
		extra.WriteString("\nExisting Code to Modify:\n")
		for i, f := range findings {
			if i == maxPromptFindings {
				break
			}
			fmt.Fprintf(&extra, "- %s\n", f.File)
		}
	}
	if len(team) > 0 {
		extra.WriteString("\nTeam Members (use these names in assigned_to where the role fits):\n")
		for _, member := range team {
			fmt.Fprintf(&extra, "- %s\n", member)
		}
	}
	return fmt.Sprintf(planTemplate, task, strings.ToUpper(string(taskType)), extra.String(), taskType)
}

// renderAnswers renders answers as "- key: value" lines sorted by key.
func renderAnswers(answers map[string]any) string {
	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "- %s: %v\n", k, answers[k])
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
