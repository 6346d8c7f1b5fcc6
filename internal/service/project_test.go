package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/sakif/readme-widgets/internal/apperror"
	"github.com/sakif/readme-widgets/internal/model"
	"github.com/sakif/readme-widgets/internal/repository"
)

// =========================================================================
// MOCK REPOSITORY
// =========================================================================
//
// mockProjectRepo implements repository.ProjectRepository in memory, so these
// tests exercise the service rules without SQLite. Values are copied in and
// out so a test can't reach into the stored state by accident.

type mockProjectRepo struct {
	projects map[string]*model.Project
	nextID   int
	failNext error
}

func newMockRepo() *mockProjectRepo {
	return &mockProjectRepo{projects: make(map[string]*model.Project)}
}

func (m *mockProjectRepo) Create(_ context.Context, project *model.Project) error {
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	m.nextID++
	project.ID = fmt.Sprintf("mock-%d", m.nextID)
	stored := *project
	m.projects[project.ID] = &stored
	return nil
}

func (m *mockProjectRepo) GetByID(_ context.Context, id string) (*model.Project, error) {
	project, ok := m.projects[id]
	if !ok {
		return nil, apperror.NotFound("project", id)
	}
	result := *project
	return &result, nil
}

func (m *mockProjectRepo) List(_ context.Context, opts repository.ListOptions) ([]model.Project, error) {
	result := make([]model.Project, 0, len(m.projects))
	for i := 1; i <= m.nextID; i++ {
		if p, ok := m.projects[fmt.Sprintf("mock-%d", i)]; ok {
			result = append(result, *p)
		}
	}
	if opts.Offset >= len(result) {
		return []model.Project{}, nil
	}
	result = result[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(result) {
		result = result[:opts.Limit]
	}
	return result, nil
}

func (m *mockProjectRepo) Update(_ context.Context, project *model.Project) error {
	if _, ok := m.projects[project.ID]; !ok {
		return apperror.NotFound("project", project.ID)
	}
	stored := *project
	m.projects[project.ID] = &stored
	return nil
}

func (m *mockProjectRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.projects[id]; !ok {
		return apperror.NotFound("project", id)
	}
	delete(m.projects, id)
	return nil
}

// =========================================================================
// TEST HELPERS
// =========================================================================

const testBaseURL = "https://widgets.example.com"

func newTestProjectService(t *testing.T) (*ProjectService, *mockProjectRepo) {
	t.Helper()
	repo := newMockRepo()
	return NewProjectService(repo, testBaseURL, testLogger()), repo
}

func markdownBlock(content string) model.Block {
	return model.Block{Kind: model.BlockMarkdown, Content: content}
}

func widgetBlock(typ string, params map[string]string) model.Block {
	return model.Block{Kind: model.BlockWidget, Widget: &model.WidgetBlock{Type: typ, Params: params}}
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestCreateProject_Success(t *testing.T) {
	svc, _ := newTestProjectService(t)

	blocks := []model.Block{markdownBlock("# Hi"), widgetBlock("github-stats", map[string]string{"username": "octocat"})}
	project, err := svc.Create(context.Background(), "  my profile  ", blocks, "user-a")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if project.ID == "" {
		t.Error("expected project to have an ID")
	}
	if project.Name != "my profile" {
		t.Errorf("Name = %q, want trimmed %q", project.Name, "my profile")
	}
	if project.Owner != "user-a" {
		t.Errorf("Owner = %q, want %q", project.Owner, "user-a")
	}
	if len(project.Blocks) != 2 {
		t.Errorf("len(Blocks) = %d, want 2", len(project.Blocks))
	}
}

func TestCreateProject_Validation(t *testing.T) {
	tooMany := make([]model.Block, MaxBlocks+1)
	for i := range tooMany {
		tooMany[i] = markdownBlock("x")
	}

	tests := []struct {
		name   string
		pname  string
		blocks []model.Block
	}{
		{"empty name", "", nil},
		{"whitespace name", "   ", nil},
		{"name too long", strings.Repeat("a", MaxProjectNameLength+1), nil},
		{"too many blocks", "p", tooMany},
		{"unknown block kind", "p", []model.Block{{Kind: "video"}}},
		{"widget block without widget", "p", []model.Block{{Kind: model.BlockWidget}}},
		{"unknown widget type", "p", []model.Block{widgetBlock("guestbook", nil)}},
		{"oversized markdown", "p", []model.Block{markdownBlock(strings.Repeat("x", MaxBlockContent+1))}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo := newTestProjectService(t)
			_, err := svc.Create(context.Background(), tt.pname, tt.blocks, "")
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("error = %v, want ErrValidation", err)
			}
			if len(repo.projects) != 0 {
				t.Error("invalid project must not be stored")
			}
		})
	}
}

func TestCreateProject_RepositoryError(t *testing.T) {
	svc, repo := newTestProjectService(t)
	repo.failNext = errors.New("disk full")

	_, err := svc.Create(context.Background(), "p", nil, "")
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("error = %v, want wrapped repository error", err)
	}
}

// =========================================================================
// GET / LIST TESTS
// =========================================================================

func TestGetProject(t *testing.T) {
	svc, _ := newTestProjectService(t)

	created, err := svc.Create(context.Background(), "test", nil, "")
	if err != nil {
		t.Fatalf("setup: Create() error = %v", err)
	}

	found, err := svc.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if found.Name != "test" {
		t.Errorf("Name = %q, want %q", found.Name, "test")
	}

	if _, err := svc.GetByID(context.Background(), "nonexistent"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("missing id: error = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByID(context.Background(), " "); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("blank id: error = %v, want ErrValidation", err)
	}
}

func TestListProjects_ClampsBadValues(t *testing.T) {
	svc, _ := newTestProjectService(t)
	for i := range 3 {
		if _, err := svc.Create(context.Background(), fmt.Sprintf("p%d", i), nil, ""); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}

	projects, err := svc.List(context.Background(), -5, -10)
	if err != nil {
		t.Fatalf("List() should handle negative values gracefully, got error = %v", err)
	}
	if len(projects) != 3 {
		t.Errorf("List() returned %d items, want 3", len(projects))
	}

	projects, err = svc.List(context.Background(), 2, 2)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(projects) != 1 {
		t.Errorf("List(2, 2) returned %d items, want 1", len(projects))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateProject_OwnerCanUpdate(t *testing.T) {
	svc, _ := newTestProjectService(t)
	created, _ := svc.Create(context.Background(), "mine", nil, "user-a")

	updated, err := svc.Update(context.Background(), created.ID, "", []model.Block{markdownBlock("new")}, "user-a")
	if err != nil {
		t.Fatalf("Owner should be able to update their own project: %v", err)
	}
	if updated.Name != "mine" {
		t.Errorf("empty name should keep %q, got %q", "mine", updated.Name)
	}
	if len(updated.Blocks) != 1 || updated.Blocks[0].Content != "new" {
		t.Errorf("Blocks = %+v, want the replacement", updated.Blocks)
	}
}

func TestUpdateProject_WrongOwner(t *testing.T) {
	svc, _ := newTestProjectService(t)
	created, _ := svc.Create(context.Background(), "owned", nil, "user-a")

	_, err := svc.Update(context.Background(), created.ID, "hack", nil, "user-b")
	if !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("error = %v, want ErrForbidden", err)
	}
}

func TestUpdateProject_Unowned(t *testing.T) {
	svc, _ := newTestProjectService(t)
	created, _ := svc.Create(context.Background(), "shared", nil, "")

	if _, err := svc.Update(context.Background(), created.ID, "renamed", nil, "anyone"); err != nil {
		t.Errorf("project without owner should be editable, got %v", err)
	}
}

func TestUpdateProject_NotFound(t *testing.T) {
	svc, _ := newTestProjectService(t)

	_, err := svc.Update(context.Background(), "nonexistent", "name", nil, "")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestDeleteProject(t *testing.T) {
	svc, _ := newTestProjectService(t)
	created, _ := svc.Create(context.Background(), "to delete", nil, "user-a")

	if err := svc.Delete(context.Background(), created.ID, "user-b"); !errors.Is(err, apperror.ErrForbidden) {
		t.Errorf("wrong owner: error = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(context.Background(), created.ID, "user-a"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := svc.GetByID(context.Background(), created.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("after delete: error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// ASSEMBLE TESTS
// =========================================================================

func TestAssemble(t *testing.T) {
	svc, _ := newTestProjectService(t)

	blocks := []model.Block{
		markdownBlock("# Hello there\n\n"),
		widgetBlock("github-stats", map[string]string{"username": "octocat", "theme": "dracula"}),
		markdownBlock(""),
		{Kind: model.BlockWidget, Widget: &model.WidgetBlock{
			Type:   "wave-banner",
			Params: map[string]string{"text": "Welcome"},
			Alt:    "My [banner]",
		}},
	}
	created, err := svc.Create(context.Background(), "readme", blocks, "")
	if err != nil {
		t.Fatalf("setup: %v", err)
	}

	got, err := svc.Assemble(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Assemble() error = %v", err)
	}

	want := "# Hello there\n\n" +
		"![GitHub stats for octocat](" + testBaseURL + "/api/github-stats?theme=dracula&username=octocat)\n\n" +
		`![My \[banner\]](` + testBaseURL + "/api/wave-banner?text=Welcome)\n"
	if got != want {
		t.Errorf("Assemble() =\n%s\nwant\n%s", got, want)
	}
}

func TestAssemble_Empty(t *testing.T) {
	got, err := AssembleBlocks(testBaseURL, nil)
	if err != nil {
		t.Fatalf("AssembleBlocks() error = %v", err)
	}
	if got != "" {
		t.Errorf("AssembleBlocks(nil) = %q, want empty", got)
	}
}

func TestAssemble_NotFound(t *testing.T) {
	svc, _ := newTestProjectService(t)
	if _, err := svc.Assemble(context.Background(), "missing"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}
