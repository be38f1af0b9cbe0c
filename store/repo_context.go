package store

// TechStack describes the technologies a repository is built with.
type TechStack struct {
	Language          string     `json:"language"`
	FrameworkBackend  string     `json:"framework_backend"`
	FrameworkFrontend string     `json:"framework_frontend"`
	Database          string     `json:"database"`
	KeyLibraries      StringList `json:"key_libraries"`
}

// KeyModule is one functional area of a repository.
type KeyModule struct {
	ModuleName    string     `json:"module_name"`
	Description   string     `json:"description"`
	RelevantFiles StringList `json:"relevant_files"`
}

// ProjectContext is the deep-analysis summary of a repository.
type ProjectContext struct {
	ProjectSummary       string      `json:"project_summary"`
	TechStack            TechStack   `json:"tech_stack"`
	ArchitectureOverview string      `json:"architecture_overview"`
	KeyModules           []KeyModule `json:"key_modules"`
}

// RepoContextMetadata is derived from the enrichment inputs at write time.
type RepoContextMetadata struct {
	FileCount int       `json:"file_count"`
	HasReadme bool      `json:"has_readme"`
	TechStack TechStack `json:"tech_stack"`
}

// RepoContext is the cached deep-analysis record of one repository.
// At most one row exists per FullName.
type RepoContext struct {
	ID          int32
	FullName    string
	Context     *ProjectContext
	Language    string
	Metadata    RepoContextMetadata
	AccessCount int32
	CreatedTs   int64
	UpdatedTs   int64
}

type UpsertRepoContext struct {
	FullName string
	Context  *ProjectContext
	Language string
	Metadata RepoContextMetadata
}

type FindRepoContext struct {
	FullName string
}
