package globber

import "testing"

type fakeFS struct {
	files map[string][]string // glob pattern -> matches
}

func (f *fakeFS) HomeDir(string) (string, bool)    { return "", false }
func (f *fakeFS) ReadFile(string) ([]byte, error)  { return nil, nil }
func (f *fakeFS) ReadLine() (string, bool)         { return "", false }
func (f *fakeFS) Glob(pattern string) ([]string, error) {
	return f.files[pattern], nil
}

func TestExpandNoMeta(t *testing.T) {
	fs := &fakeFS{}
	got, err := Expand(fs, "plain.txt", Options{})
	if err != nil || len(got) != 1 || got[0] != "plain.txt" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestExpandNoGlobOption(t *testing.T) {
	fs := &fakeFS{files: map[string][]string{"*.go": {"a.go"}}}
	got, err := Expand(fs, "*.go", Options{NoGlob: true})
	if err != nil || len(got) != 1 || got[0] != "*.go" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestExpandMatches(t *testing.T) {
	fs := &fakeFS{files: map[string][]string{"*.go": {"b.go", "a.go"}}}
	got, err := Expand(fs, "*.go", Options{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	want := []string{"a.go", "b.go"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
		}
	}
}

func TestExpandNullGlob(t *testing.T) {
	fs := &fakeFS{files: map[string][]string{"*.absent": nil}}
	got, err := Expand(fs, "*.absent", Options{NullGlob: true})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestExpandFailGlob(t *testing.T) {
	fs := &fakeFS{files: map[string][]string{"*.absent": nil}}
	_, err := Expand(fs, "*.absent", Options{FailGlob: true})
	if err == nil {
		t.Errorf("expected failglob error")
	}
}

func TestExpandUnmatchedDefaultsToLiteral(t *testing.T) {
	fs := &fakeFS{files: map[string][]string{"*.absent": nil}}
	got, err := Expand(fs, "*.absent", Options{})
	if err != nil || len(got) != 1 || got[0] != "*.absent" {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestExpandDotGlobFiltersHidden(t *testing.T) {
	fs := &fakeFS{files: map[string][]string{"*.conf": {".hidden.conf", "visible.conf"}}}
	got, err := Expand(fs, "*.conf", Options{})
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if len(got) != 1 || got[0] != "visible.conf" {
		t.Errorf("got %v, want [visible.conf]", got)
	}
}

func TestMatchPattern(t *testing.T) {
	ok, err := MatchPattern("**/*.go", "a/b/c.go")
	if err != nil || !ok {
		t.Errorf("MatchPattern failed: %v %v", ok, err)
	}
}
