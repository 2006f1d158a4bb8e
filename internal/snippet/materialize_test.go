package snippet

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"docsnip/internal/errors"
)

func newTestMaterializer() *Materializer {
	return NewMaterializer("~", Policy{
		ForbiddenTSCalls:    []string{"require("},
		DeprecatedGoModules: []string{"supertokens-go"},
	})
}

func block(lang Language, ordinal int, body string) Block {
	return Block{
		Fence:    Fence{Tag: "```" + string(lang), Body: body, StartLine: 3, EndLine: 6},
		Language: lang,
		Ordinal:  ordinal,
	}
}

func TestMaterializer_FolderName(t *testing.T) {
	m := newTestMaterializer()

	tests := []struct {
		docPath string
		ordinal int
		want    string
	}{
		{"docs/v2/session/intro.md", 0, "docs/v2/session/intro.md0"},
		{"docs/v2/session/intro.md", 12, "docs/v2/session/intro.md12"},
		{"docs/v2/emailpassword/~custom/setup.mdx", 1, "docs/v2/emailpassword/custom/setup.mdx1"},
		{"/abs/docs/a.md", 0, "abs/docs/a.md0"},
		{"../outside/a.md", 0, "outside/a.md0"},
		{"docs/../../x.md", 2, "x.md2"},
	}

	for _, tt := range tests {
		if got := m.FolderName(tt.docPath, tt.ordinal); got != tt.want {
			t.Errorf("FolderName(%q, %d) = %q, want %q", tt.docPath, tt.ordinal, got, tt.want)
		}
	}
}

func TestMaterializer_FolderNamesDistinct(t *testing.T) {
	m := newTestMaterializer()

	docs := []string{
		"docs/v2/session/intro.md",
		"docs/v2/session/advanced/intro.md",
		"docs/v2/session/intro.mdx",
	}

	seen := make(map[string]string)
	for _, d := range docs {
		for i := 0; i < 3; i++ {
			name := m.FolderName(d, i)
			if prev, ok := seen[name]; ok {
				t.Errorf("folder %q produced by both %s and %s#%d", name, prev, d, i)
			}
			seen[name] = d
		}
	}
}

func TestGoPackageName(t *testing.T) {
	tests := map[string]string{
		"my-example.v1": "myexamplev1",
		"intro.md0":     "intromd0",
		"plain":         "plain",
		"a-b-c.d.e7":    "abcde7",
	}
	for in, want := range tests {
		if got := GoPackageName(in); got != want {
			t.Errorf("GoPackageName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMaterializer_Materialize(t *testing.T) {
	m := newTestMaterializer()
	doc := NewDocument("docs/v2/session/quick-setup.md", "", "/v2/")

	tests := []struct {
		name  string
		block Block
		want  Artifact
	}{
		{
			name:  "typescript",
			block: block(LangTypeScript, 0, "\nimport x from \"y\";"),
			want: Artifact{
				Language: LangTypeScript,
				DocPath:  doc.Path,
				Ordinal:  0,
				Dir:      "docs/v2/session/quick-setup.md0",
				Path:     "docs/v2/session/quick-setup.md0/index.tsx",
				Content:  "export { }\n\nimport x from \"y\";",
			},
		},
		{
			name:  "go",
			block: block(LangGo, 1, "\nfunc main() {}"),
			want: Artifact{
				Language: LangGo,
				DocPath:  doc.Path,
				Ordinal:  1,
				Dir:      "docs/v2/session/quicksetupmd1",
				Path:     "docs/v2/session/quicksetupmd1/main.go",
				Content:  "package quicksetupmd1\n\nfunc main() {}",
			},
		},
		{
			name:  "python",
			block: block(LangPython, 2, "\nprint(1)"),
			want: Artifact{
				Language: LangPython,
				DocPath:  doc.Path,
				Ordinal:  2,
				Dir:      "docs/v2/session/quick-setup.md2",
				Path:     "docs/v2/session/quick-setup.md2/main.py",
				Content:  "\nprint(1)",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.Materialize(doc, tt.block)
			if err != nil {
				t.Fatalf("Materialize() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Materialize() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMaterializer_PolicyViolations(t *testing.T) {
	m := newTestMaterializer()
	doc := NewDocument("docs/v2/session/intro.md", "", "/v2/")

	tests := []struct {
		name  string
		block Block
	}{
		{"typescript require", block(LangTypeScript, 0, "\nconst st = require(\"supertokens-node\");")},
		{"go deprecated module dir", block(LangGo, 0, "\nimport \"github.com/supertokens/supertokens-go/recipe\"")},
		{"go deprecated module eol", block(LangGo, 0, "\n// see github.com/supertokens/supertokens-go\nfunc main() {}")},
		{"go deprecated module import", block(LangGo, 0, "\nimport \"github.com/supertokens/supertokens-go\"")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Materialize(doc, tt.block)
			if !errors.Is(err, errors.PolicyViolation) {
				t.Fatalf("error = %v, want POLICY_VIOLATION", err)
			}
			if !strings.Contains(err.Error(), doc.Path) {
				t.Errorf("error %q should name the document", err.Error())
			}
		})
	}
}

func TestMaterializer_AllowedGoImports(t *testing.T) {
	m := newTestMaterializer()
	doc := NewDocument("docs/v2/session/intro.md", "", "/v2/")

	b := block(LangGo, 0, "\nimport \"github.com/supertokens/supertokens-golang/recipe/session\"")
	if _, err := m.Materialize(doc, b); err != nil {
		t.Errorf("supertokens-golang should be allowed: %v", err)
	}
}

func TestMaterializer_UnsupportedLanguage(t *testing.T) {
	m := newTestMaterializer()
	doc := NewDocument("docs/v2/session/intro.md", "", "/v2/")

	_, err := m.Materialize(doc, block(LangIgnore, 0, ""))
	if !errors.Is(err, errors.ContractError) {
		t.Errorf("error = %v, want CONTRACT_ERROR", err)
	}
}
