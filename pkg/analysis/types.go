package analysis

import (
	"github.com/google/uuid"

	"github.com/matzehuels/depview/pkg/repo"
)

// NodeType is the ecosystem category of a dependency node.
type NodeType string

// Known node categories. Anything else the service sends classifies as [NodeOther].
const (
	NodeNPM    NodeType = "npm"
	NodePython NodeType = "python"
	NodeMaven  NodeType = "maven"
	NodeRepo   NodeType = "repo"
	NodeOther  NodeType = "other"
)

// ParseNodeType maps a wire type to its category.
func ParseNodeType(s string) NodeType {
	switch t := NodeType(s); t {
	case NodeNPM, NodePython, NodeMaven, NodeRepo:
		return t
	default:
		return NodeOther
	}
}

// Request is one analysis call. It exists only for the duration of that call.
type Request struct {
	Owner     string
	Repo      string
	SourceURL string // the URL exactly as the user entered it
	ID        string // correlation ID, sent as X-Request-ID
}

// NewRequest builds the request for ref with a fresh correlation ID.
func NewRequest(ref repo.Reference, sourceURL string) Request {
	return Request{
		Owner:     ref.Owner,
		Repo:      ref.Repo,
		SourceURL: sourceURL,
		ID:        uuid.NewString(),
	}
}

// payload is the JSON body of POST /analyze.
type payload struct {
	Owner     string `json:"owner"`
	Repo      string `json:"repo"`
	GitHubURL string `json:"github_url"`
}

// Stats holds the report counters.
type Stats struct {
	TotalDependencies      int `json:"totalDependencies"`
	DirectDependencies     int `json:"directDependencies"`
	TransitiveDependencies int `json:"transitiveDependencies"`
	Vulnerabilities        int `json:"vulnerabilities"`

	// Reported by some service versions only.
	TotalFiles        *int `json:"totalFiles,omitempty"`
	ExternalPackages  *int `json:"externalPackages,omitempty"`
	StandardLibraries *int `json:"standardLibraries,omitempty"`
}

// Node is one entry of the analyzed project's dependency list.
type Node struct {
	Name            string  `json:"name"`
	Type            string  `json:"type"`
	Version         *string `json:"version,omitempty"`
	License         *string `json:"license,omitempty"`
	Vulnerabilities *int    `json:"vulnerabilities,omitempty"`
	Dependencies    *int    `json:"dependencies,omitempty"` // outgoing edge count
}

// Category returns the node's ecosystem category.
func (n Node) Category() NodeType {
	return ParseNodeType(n.Type)
}

// Result is a successful analysis report.
type Result struct {
	Stats              Stats   `json:"stats"`
	ReadmePreview      *string `json:"readme_preview,omitempty"`
	GraphImage         *string `json:"graph_image,omitempty"` // base64 PNG
	Dependencies       []Node  `json:"dependencies"`
	ProjectDescription *string `json:"project_description,omitempty"`
	RepoName           string  `json:"repo_name,omitempty"`
}

// normalize clamps counters to be non-negative.
func (r *Result) normalize() {
	clamp := func(p *int) {
		if *p < 0 {
			*p = 0
		}
	}
	clampOpt := func(p *int) {
		if p != nil {
			clamp(p)
		}
	}

	clamp(&r.Stats.TotalDependencies)
	clamp(&r.Stats.DirectDependencies)
	clamp(&r.Stats.TransitiveDependencies)
	clamp(&r.Stats.Vulnerabilities)
	clampOpt(r.Stats.TotalFiles)
	clampOpt(r.Stats.ExternalPackages)
	clampOpt(r.Stats.StandardLibraries)
	for i := range r.Dependencies {
		clampOpt(r.Dependencies[i].Vulnerabilities)
		clampOpt(r.Dependencies[i].Dependencies)
	}
}

// errorBody is the JSON body the service sends with a non-2xx status.
type errorBody struct {
	Error string `json:"error"`
}
