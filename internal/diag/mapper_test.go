package diag

import (
	"errors"
	"testing"
)

type testUnit struct {
	origins []Origin
	files   []string
}

func (u testUnit) Origin(mergedLine int) (Origin, bool) {
	if mergedLine < 1 || mergedLine > len(u.origins) {
		return Origin{}, false
	}
	return u.origins[mergedLine-1], true
}

func (u testUnit) SourceFiles() []string { return u.files }

// unitWithLine42 maps merged line 42 to lighting.glsl:7 and everything else to main.frag.
func unitWithLine42() testUnit {
	u := testUnit{files: []string{"main.frag", "lighting.glsl"}}
	for i := 1; i <= 50; i++ {
		if i == 42 {
			u.origins = append(u.origins, Origin{File: "lighting.glsl", Line: 7})
			continue
		}
		u.origins = append(u.origins, Origin{File: "main.frag", Line: i})
	}
	return u
}

func TestMapRewritesMergedLine(t *testing.T) {
	got := Map("0(42) : error X1234: undefined symbol\n", unitWithLine42())
	if len(got) != 1 {
		t.Fatalf("expected 1 file group, got %d: %+v", len(got), got)
	}
	if got[0].File != "lighting.glsl" {
		t.Fatalf("expected lighting.glsl, got %q", got[0].File)
	}
	d := got[0].Items[0]
	if d.Line != 7 || d.Message != "undefined symbol" || d.Code != "X1234" || d.MergedLine != 42 {
		t.Fatalf("unexpected diagnostic %+v", d)
	}
}

func TestMapGroupsInInclusionOrder(t *testing.T) {
	raw := "0(42) : error C0000: first\n" +
		"0(3) : error C1008: second\n" +
		"0(10) : error C1503: third\n" +
		"\x00"
	got := Map(raw, unitWithLine42())
	if len(got) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(got))
	}
	if got[0].File != "main.frag" || got[1].File != "lighting.glsl" {
		t.Fatalf("groups out of inclusion order: %q, %q", got[0].File, got[1].File)
	}
	if len(got[0].Items) != 2 || got[0].Items[0].Line != 3 || got[0].Items[1].Line != 10 {
		t.Fatalf("unexpected main.frag items %+v", got[0].Items)
	}
}

func TestMapSkipsUnknownLines(t *testing.T) {
	raw := "Fragment info\n-------------\n0(12) : warning C7050: maybe\n\n"
	if got := Map(raw, unitWithLine42()); len(got) != 0 {
		t.Fatalf("expected nothing, got %+v", got)
	}
}

func TestMapMesaFormat(t *testing.T) {
	got := Map("0:42(5): error: `foo' undeclared", unitWithLine42())
	if len(got) != 1 || got[0].Items[0].Line != 7 || got[0].Items[0].Message != "`foo' undeclared" {
		t.Fatalf("unexpected mapping %+v", got)
	}
}

func TestMapOutOfRangeLine(t *testing.T) {
	got := Map("0(99) : error C0000: syntax error, unexpected end of file", unitWithLine42())
	if len(got) != 1 || got[0].File != MergedFile || got[0].Items[0].Line != 99 {
		t.Fatalf("expected stray group for merged line 99, got %+v", got)
	}
}

func TestErrorMatchesCode(t *testing.T) {
	var err error = &Error{Code: DuplicateInclude, Path: "B"}
	if !errors.Is(err, DuplicateInclude) {
		t.Fatal("errors.Is should match the code")
	}
	if errors.Is(err, NotFound) {
		t.Fatal("errors.Is matched the wrong code")
	}
	if got := err.Error(); got != `"B" included multiple times` {
		t.Fatalf("unexpected message %q", got)
	}
	wrapped := errors.Join(errors.New("context"), err)
	if CodeOf(wrapped) != DuplicateInclude {
		t.Fatalf("CodeOf lost the code through wrapping")
	}
}

func TestBagDedupAndGroup(t *testing.T) {
	b := NewBag(10)
	b.AddFiles(Map("0(3) : error C1: a\n0(3) : error C1: a\n0(42) : error C2: b", unitWithLine42()))
	b.Dedup()
	if b.Len() != 2 {
		t.Fatalf("expected 2 after dedup, got %d", b.Len())
	}
	groups := b.Group()
	if len(groups) != 2 || groups[0].File != "main.frag" {
		t.Fatalf("unexpected groups %+v", groups)
	}
	if !b.HasErrors() {
		t.Fatal("expected errors")
	}
}
