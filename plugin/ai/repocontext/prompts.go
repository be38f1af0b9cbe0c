package repocontext

import (
	"fmt"
	"strings"
)

const deepAnalysisPromptTemplate = `You are a senior solutions architect. Analyze the GitHub repository below and produce a "Project Context" summary.

Repository file tree (first %d files):
%s

README:
%s

Return a JSON object with:
1. "project_summary": one paragraph describing the purpose of the project
2. "tech_stack": an object with "language", "framework_backend", "framework_frontend", "database" and "key_libraries" (array of strings)
3. "architecture_overview": a short description of the architecture, such as "Monolithic MVC" or "Microservices"
4. "key_modules": an array of the core modules, each with "module_name", "description" and "relevant_files" (the 3 to 5 most important file paths)

Only state what the files and README support. Respond with JSON only:
{
  "project_summary": "...",
  "tech_stack": {
    "language": "...",
    "framework_backend": "...",
    "framework_frontend": "...",
    "database": "...",
    "key_libraries": ["..."]
  },
  "architecture_overview": "...",
  "key_modules": [
    {"module_name": "...", "description": "...", "relevant_files": ["..."]}
  ]
}`

func buildDeepAnalysisPrompt(files []string, readme string) string {
	if len(files) > maxPromptFiles {
		files = files[:maxPromptFiles]
	}
	fileList := strings.Join(files, ", ")
	if fileList == "" {
		fileList = "(file tree unavailable)"
	}
	if readme == "" {
		readme = "(no README)"
	}
	return fmt.Sprintf(deepAnalysisPromptTemplate, maxPromptFiles, fileList, readme)
}
