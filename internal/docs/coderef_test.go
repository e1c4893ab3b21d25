package docs

import (
	"reflect"
	"strings"
	"testing"
)

func testRepos(t *testing.T) *RepoTable {
	t.Helper()
	repos, err := NewRepoTable([]RepositoryEntry{
		{PathToRoot: "azure-docs-sdk", URL: "https://github.com/org/repo", Branch: "main"},
		{PathToRoot: "samples", URL: "https://github.com/Azure-Samples/functions-quickstarts-java", Branch: "master"},
	})
	if err != nil {
		t.Fatalf("NewRepoTable: %v", err)
	}
	return repos
}

func TestDirectivePattern(t *testing.T) {
	tests := []struct {
		line  string
		match bool
		span  string
	}{
		{`:::code language="csharp" source="~/repo/a.cs":::`, true, ` language="csharp" source="~/repo/a.cs"`},
		{`:::code source="~/repo/a.cs"::: trailing text`, true, ` source="~/repo/a.cs"`},
		{`:::code source="~/r/a.cs"::: and :::`, true, ` source="~/r/a.cs"::: and `},
		{`  :::code source="~/repo/a.cs":::`, false, ""},
		{`:::image source="media/a.png":::`, false, ""},
		{`:::code source="~/repo/a.cs"`, false, ""},
		{`text :::code source="~/repo/a.cs":::`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			m := directivePattern.FindStringSubmatch(tt.line)
			if (m != nil) != tt.match {
				t.Fatalf("match = %v, want %v", m != nil, tt.match)
			}
			if m != nil && m[1] != tt.span {
				t.Errorf("span = %q, want %q", m[1], tt.span)
			}
		})
	}
}

func TestParseProperties(t *testing.T) {
	got := ParseProperties(`language="csharp" source="~/repo/a.cs" id="snippet=1" interactive highlight="2-3"`)
	want := map[string]string{
		"language":  "csharp",
		"source":    "~/repo/a.cs",
		"id":        "snippet=1",
		"highlight": "2-3",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseProperties = %v, want %v", got, want)
	}

	if got := ParseProperties(""); len(got) != 0 {
		t.Errorf("ParseProperties(\"\") = %v, want empty", got)
	}
}

func TestSplitSource(t *testing.T) {
	tests := []struct {
		source string
		repoID string
		path   string
		reason string
	}{
		{"~/azure-docs-sdk/src/Foo.cs", "azure-docs-sdk", "src/Foo.cs", ""},
		{"~/../azure-docs-sdk/src/Foo.cs", "azure-docs-sdk", "src/Foo.cs", ""},
		{"~/repo/file.cs", "repo", "file.cs", ""},
		{"../snippets/a.cs", "", "", ReasonNotExternal},
		{"snippets/a.cs", "", "", ReasonNotExternal},
		{"~", "", "", ReasonMalformedSource},
		{"~/repo", "", "", ReasonMalformedSource},
		{"~/../repo", "", "", ReasonMalformedSource},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			repoID, path, reason := SplitSource(tt.source)
			if repoID != tt.repoID || path != tt.path || reason != tt.reason {
				t.Errorf("SplitSource(%q) = (%q, %q, %q), want (%q, %q, %q)",
					tt.source, repoID, path, reason, tt.repoID, tt.path, tt.reason)
			}
		})
	}
}

func TestFindReferences_Kinds(t *testing.T) {
	repos := testRepos(t)
	content := strings.Join([]string{
		"---",
		"ms.author: someone",
		"---",
		"# Title",
		"",
		`:::code language="csharp" source="~/azure-docs-sdk/src/Foo.cs" id="snippet1":::`,
		`:::code language="csharp" source="~/azure-docs-sdk/src/Foo.cs" range="10-20":::`,
		`:::code language="csharp" source="~/azure-docs-sdk/src/Foo.cs":::`,
		`:::code source="~/azure-docs-sdk/src/Foo.cs" id="a" range="1-2":::`,
	}, "\n")

	scan := FindReferences(content, repos, AbortDocument)
	if scan.Aborted {
		t.Fatalf("unexpected abort: %s", scan.AbortReason)
	}
	if len(scan.References) != 4 {
		t.Fatalf("expected 4 references, got %d", len(scan.References))
	}

	want := []struct {
		line   int
		kind   RefKind
		detail string
	}{
		{6, KindByID, "snippet1"},
		{7, KindByRange, "'10-20'"},
		{8, KindWholeFile, ""},
		{9, KindByID, "a"},
	}
	for i, w := range want {
		ref := scan.References[i]
		if ref.Line != w.line || ref.Kind != w.kind || ref.Detail != w.detail {
			t.Errorf("ref %d = (%d, %s, %q), want (%d, %s, %q)",
				i, ref.Line, ref.Kind, ref.Detail, w.line, w.kind, w.detail)
		}
	}
}

func TestFindReferences_ResolvedURL(t *testing.T) {
	repos := testRepos(t)
	scan := FindReferences(`:::code source="~/azure-docs-sdk/src/Foo.cs" id="snippet1":::`, repos, AbortDocument)

	if len(scan.References) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(scan.References))
	}
	ref := scan.References[0]
	if ref.Resolved == nil {
		t.Fatal("expected resolved target")
	}
	want := ResolvedTarget{
		FileURL:      "https://github.com/org/repo/blob/main/src/Foo.cs",
		RepoURL:      "https://github.com/org/repo",
		Branch:       "main",
		RelativePath: "src/Foo.cs",
	}
	if *ref.Resolved != want {
		t.Errorf("Resolved = %+v, want %+v", *ref.Resolved, want)
	}
}

func TestFindReferences_EscapeEquivalent(t *testing.T) {
	repos := testRepos(t)
	direct := FindReferences(`:::code source="~/samples/src/main/Function.java":::`, repos, AbortDocument)
	escaped := FindReferences(`:::code source="~/../samples/src/main/Function.java":::`, repos, AbortDocument)

	if len(direct.References) != 1 || len(escaped.References) != 1 {
		t.Fatalf("expected one reference each, got %d and %d", len(direct.References), len(escaped.References))
	}
	d, e := direct.References[0], escaped.References[0]
	if d.RepoID != e.RepoID || d.Path != e.Path {
		t.Errorf("escape form gave (%s, %s), direct gave (%s, %s)", e.RepoID, e.Path, d.RepoID, d.Path)
	}
	if d.FileURL() != e.FileURL() || d.FileURL() == "" {
		t.Errorf("file URLs differ: %q vs %q", d.FileURL(), e.FileURL())
	}
}

func TestFindReferences_Unresolved(t *testing.T) {
	repos := testRepos(t)
	content := `:::code source="~/unknown-repo/a.cs":::` + "\n" +
		`:::code source="~/samples/b.java":::`

	scan := FindReferences(content, repos, AbortDocument)
	if len(scan.References) != 2 {
		t.Fatalf("unresolved references must still be emitted, got %d", len(scan.References))
	}
	if scan.References[0].Resolved != nil {
		t.Error("unknown repo should not resolve")
	}
	if scan.References[0].FileURL() != "" {
		t.Error("FileURL of unresolved reference should be empty")
	}
	if scan.References[1].Resolved == nil {
		t.Error("scan should continue after an unresolved reference")
	}
}

func TestFindReferences_AbortDocument(t *testing.T) {
	repos := testRepos(t)

	tests := []struct {
		name   string
		bad    string
		reason string
	}{
		{"no source", `:::code language="csharp" id="x":::`, ReasonNoSource},
		{"local source", `:::code source="../snippets/a.cs":::`, ReasonNotExternal},
		{"malformed source", `:::code source="~/repo":::`, ReasonMalformedSource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			content := strings.Join([]string{
				`:::code source="~/samples/first.java":::`,
				tt.bad,
				`:::code source="~/samples/after.java":::`,
			}, "\n")

			scan := FindReferences(content, repos, AbortDocument)
			if !scan.Aborted {
				t.Fatal("expected document abort")
			}
			if len(scan.References) != 0 {
				t.Errorf("aborted document must yield no references, got %d", len(scan.References))
			}
			if scan.AbortLine != 2 {
				t.Errorf("AbortLine = %d, want 2", scan.AbortLine)
			}
			if scan.AbortReason != tt.reason {
				t.Errorf("AbortReason = %q, want %q", scan.AbortReason, tt.reason)
			}
		})
	}
}

func TestFindReferences_SkipLine(t *testing.T) {
	repos := testRepos(t)
	content := strings.Join([]string{
		`:::code source="~/samples/first.java":::`,
		`:::code source="../snippets/a.cs":::`,
		`:::code id="nosource":::`,
		`:::code source="~/samples/after.java":::`,
	}, "\n")

	scan := FindReferences(content, repos, SkipLine)
	if scan.Aborted {
		t.Fatal("SkipLine must not abort")
	}
	if len(scan.References) != 2 {
		t.Fatalf("expected 2 references, got %d", len(scan.References))
	}
	if scan.References[1].Line != 4 {
		t.Errorf("second reference line = %d, want 4", scan.References[1].Line)
	}
	want := []SkippedLine{{2, ReasonNotExternal}, {3, ReasonNoSource}}
	if !reflect.DeepEqual(scan.Skipped, want) {
		t.Errorf("Skipped = %v, want %v", scan.Skipped, want)
	}
}

func TestFindReferences_LineEndings(t *testing.T) {
	repos := testRepos(t)
	content := "intro\r\n\r\n:::code source=\"~/samples/a.java\":::\r\n"

	scan := FindReferences(content, repos, AbortDocument)
	if len(scan.References) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(scan.References))
	}
	if scan.References[0].Line != 3 {
		t.Errorf("Line = %d, want 3", scan.References[0].Line)
	}
	if scan.References[0].Path != "a.java" {
		t.Errorf("Path = %q, want a.java", scan.References[0].Path)
	}
}

func TestFindReferences_Empty(t *testing.T) {
	scan := FindReferences("", testRepos(t), AbortDocument)
	if scan.Aborted || len(scan.References) != 0 {
		t.Errorf("empty document: %+v", scan)
	}
}
