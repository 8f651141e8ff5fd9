package types

import (
	"errors"
	"fmt"
	"strings"
)

// Operation identifies which remote operation an invocation performs.
type Operation string

// Operation constants.
const (
	// OperationScaffold generates a new app into an existing project directory.
	OperationScaffold Operation = "scaffold"
	// OperationEdit asks the agent to modify a single file.
	OperationEdit Operation = "edit"
)

// Endpoint returns the URL path of the operation, relative to the API base URL.
func (o Operation) Endpoint() string {
	switch o {
	case OperationScaffold:
		return "/generate"
	case OperationEdit:
		return "/edit"
	default:
		return ""
	}
}

// Request is an outbound request body. Built once per invocation and
// never mutated afterwards.
type Request interface {
	// Operation returns the operation this body is sent for.
	Operation() Operation
}

// ScaffoldRequest is the body of POST {base_url}/generate.
type ScaffoldRequest struct {
	ProjectPath string   `json:"project_path"`
	UserPrompt  string   `json:"user_prompt"`
	AppName     string   `json:"app_name"`
	BrandColor  string   `json:"brand_color"`
	ImageURLs   []string `json:"image_urls"`
}

// EditRequest is the body of POST {base_url}/edit.
type EditRequest struct {
	ProjectPath  string `json:"project_path"`
	RelativePath string `json:"relative_path"`
	Content      string `json:"content"`
	UserPrompt   string `json:"user_prompt"`
}

// Operation implements Request.
func (ScaffoldRequest) Operation() Operation { return OperationScaffold }

// Operation implements Request.
func (EditRequest) Operation() Operation { return OperationEdit }

// NewScaffoldRequest builds a scaffold request body.
// The image URL slice is copied so later caller mutation cannot leak in.
func NewScaffoldRequest(projectPath, prompt, appName, brandColor string, imageURLs []string) (*ScaffoldRequest, error) {
	if strings.TrimSpace(projectPath) == "" {
		return nil, errors.New("project_path must be non-empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("user_prompt must be non-empty")
	}
	if strings.TrimSpace(appName) == "" {
		return nil, errors.New("app_name must be non-empty")
	}

	urls := make([]string, 0, len(imageURLs))
	urls = append(urls, imageURLs...)

	return &ScaffoldRequest{
		ProjectPath: projectPath,
		UserPrompt:  prompt,
		AppName:     appName,
		BrandColor:  brandColor,
		ImageURLs:   urls,
	}, nil
}

// NewEditRequest builds an edit request body.
func NewEditRequest(projectPath, relativePath, content, prompt string) (*EditRequest, error) {
	if strings.TrimSpace(projectPath) == "" {
		return nil, errors.New("project_path must be non-empty")
	}
	if strings.TrimSpace(relativePath) == "" {
		return nil, errors.New("relative_path must be non-empty")
	}
	if strings.TrimSpace(prompt) == "" {
		return nil, errors.New("user_prompt must be non-empty")
	}

	return &EditRequest{
		ProjectPath:  projectPath,
		RelativePath: relativePath,
		Content:      content,
		UserPrompt:   prompt,
	}, nil
}

// EndpointURL joins the API base URL with the operation endpoint.
// Trailing slashes on the base URL are trimmed.
func EndpointURL(baseURL string, op Operation) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return "", errors.New("api_url is not configured")
	}
	path := op.Endpoint()
	if path == "" {
		return "", fmt.Errorf("unknown operation %q", op)
	}
	return base + path, nil
}
