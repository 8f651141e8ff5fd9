package types //nolint:revive // types is a valid package name

import (
	"encoding/json"
	"testing"
)

func TestNewScaffoldRequest_JSONShape(t *testing.T) {
	req, err := NewScaffoldRequest("/work/app", "a todo app", "todo", "#7C3AED", []string{"https://img/1.png"})
	if err != nil {
		t.Fatalf("NewScaffoldRequest failed: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"project_path":"/work/app","user_prompt":"a todo app","app_name":"todo","brand_color":"#7C3AED","image_urls":["https://img/1.png"]}`
	if string(data) != want {
		t.Errorf("body = %s, want %s", data, want)
	}
	if req.Operation() != OperationScaffold {
		t.Errorf("Operation() = %s, want scaffold", req.Operation())
	}
}

func TestNewScaffoldRequest_NilImagesEncodeAsEmptyArray(t *testing.T) {
	req, err := NewScaffoldRequest("/work/app", "prompt", "app", "", nil)
	if err != nil {
		t.Fatalf("NewScaffoldRequest failed: %v", err)
	}

	var decoded map[string]any
	data, _ := json.Marshal(req)
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	urls, ok := decoded["image_urls"].([]any)
	if !ok {
		t.Fatalf("image_urls = %v (%T), want array", decoded["image_urls"], decoded["image_urls"])
	}
	if len(urls) != 0 {
		t.Errorf("len(image_urls) = %d, want 0", len(urls))
	}
}

func TestNewScaffoldRequest_CopiesImageURLs(t *testing.T) {
	urls := []string{"a"}
	req, err := NewScaffoldRequest("/p", "prompt", "app", "", urls)
	if err != nil {
		t.Fatalf("NewScaffoldRequest failed: %v", err)
	}
	urls[0] = "mutated"
	if req.ImageURLs[0] != "a" {
		t.Errorf("ImageURLs[0] = %q, want a", req.ImageURLs[0])
	}
}

func TestNewScaffoldRequest_Validation(t *testing.T) {
	tests := []struct {
		name        string
		projectPath string
		prompt      string
		appName     string
	}{
		{"empty project", "", "prompt", "app"},
		{"empty prompt", "/p", "  ", "app"},
		{"empty app name", "/p", "prompt", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewScaffoldRequest(tt.projectPath, tt.prompt, tt.appName, "", nil); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestNewEditRequest_JSONShape(t *testing.T) {
	req, err := NewEditRequest("/work/app", "app/index.tsx", "export {}", "make it blue")
	if err != nil {
		t.Fatalf("NewEditRequest failed: %v", err)
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"project_path":"/work/app","relative_path":"app/index.tsx","content":"export {}","user_prompt":"make it blue"}`
	if string(data) != want {
		t.Errorf("body = %s, want %s", data, want)
	}
	if req.Operation() != OperationEdit {
		t.Errorf("Operation() = %s, want edit", req.Operation())
	}
}

func TestNewEditRequest_AllowsEmptyContent(t *testing.T) {
	if _, err := NewEditRequest("/p", "new.tsx", "", "create it"); err != nil {
		t.Errorf("empty content should be allowed: %v", err)
	}
	if _, err := NewEditRequest("/p", "", "x", "prompt"); err == nil {
		t.Error("expected error for empty relative_path")
	}
}

func TestEndpointURL(t *testing.T) {
	tests := []struct {
		base    string
		op      Operation
		want    string
		wantErr bool
	}{
		{"http://localhost:8000", OperationScaffold, "http://localhost:8000/generate", false},
		{"http://localhost:8000/", OperationScaffold, "http://localhost:8000/generate", false},
		{"https://api.example.com/v1//", OperationEdit, "https://api.example.com/v1/edit", false},
		{"", OperationEdit, "", true},
		{"http://x", Operation("deploy"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.base+string(tt.op), func(t *testing.T) {
			got, err := EndpointURL(tt.base, tt.op)
			if (err != nil) != tt.wantErr {
				t.Fatalf("EndpointURL error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("EndpointURL = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInvocationMeta_Validate(t *testing.T) {
	valid := InvocationMeta{InvocationID: "inv-1", Operation: OperationScaffold, ProjectPath: "/p"}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid meta rejected: %v", err)
	}

	tests := []struct {
		name string
		meta InvocationMeta
	}{
		{"missing id", InvocationMeta{Operation: OperationEdit, ProjectPath: "/p"}},
		{"unknown operation", InvocationMeta{InvocationID: "x", Operation: "deploy", ProjectPath: "/p"}},
		{"missing project", InvocationMeta{InvocationID: "x", Operation: OperationEdit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.meta.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}
