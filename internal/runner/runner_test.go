package runner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/donaldgifford/reopt/pkg/regexopt"
)

const (
	optimizable = "/foooooo/\n/baz/i\n"
	optimized   = "/fo{6}/\n/baz/i\n"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunPrintsRewrittenList(t *testing.T) {
	path := writeFile(t, t.TempDir(), "patterns.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{path},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitOK {
		t.Errorf("exit code: got %d, want %d", code, ExitOK)
	}
	if stdout.String() != optimized {
		t.Errorf("stdout: got %q, want %q", stdout.String(), optimized)
	}

	// The file itself is untouched without -w.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != optimizable {
		t.Errorf("file content changed: %q", string(data))
	}
}

func TestRunCheck(t *testing.T) {
	dir := t.TempDir()

	bad := writeFile(t, dir, "bad.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{bad},
		Check:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitChanges {
		t.Errorf("check optimizable: got %d, want %d", code, ExitChanges)
	}
	want := bad + ":1: /foooooo/ can be optimized to /fo{6}/\n"
	if stdout.String() != want {
		t.Errorf("check output: got %q, want %q", stdout.String(), want)
	}

	good := writeFile(t, dir, "good.re", optimized)

	stdout.Reset()
	stderr.Reset()
	code = Run(&Options{
		Files:  []string{good},
		Check:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitOK {
		t.Errorf("check optimized: got %d, want %d", code, ExitOK)
	}
	if stdout.Len() != 0 {
		t.Errorf("expected no findings, got: %s", stdout.String())
	}
}

func TestRunCheckQuiet(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{path},
		Check:  true,
		Quiet:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitChanges {
		t.Errorf("exit code: got %d, want %d", code, ExitChanges)
	}
	if stdout.Len() != 0 {
		t.Errorf("quiet mode printed findings: %s", stdout.String())
	}
}

func TestRunDiff(t *testing.T) {
	path := writeFile(t, t.TempDir(), "patterns.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{path},
		Diff:   true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitChanges {
		t.Errorf("exit code: got %d, want %d", code, ExitChanges)
	}

	// Should contain both old and new versions.
	if !bytes.Contains(stdout.Bytes(), []byte("-/foooooo/")) {
		t.Error("diff missing old line")
	}
	if !bytes.Contains(stdout.Bytes(), []byte("+/fo{6}/")) {
		t.Error("diff missing new line")
	}
}

func TestRunWrite(t *testing.T) {
	path := writeFile(t, t.TempDir(), "patterns.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{path},
		Write:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitOK {
		t.Errorf("exit code: got %d, want %d", code, ExitOK)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != optimized {
		t.Errorf("file content: got %q, want %q", string(data), optimized)
	}
	if stdout.Len() != 0 {
		t.Errorf("write mode printed output: %s", stdout.String())
	}
}

func TestRunStdin(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Stdin:  strings.NewReader(optimizable),
		Check:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitChanges {
		t.Errorf("exit code: got %d, want %d", code, ExitChanges)
	}
	if !strings.HasPrefix(stdout.String(), "<stdin>:1: ") {
		t.Errorf("stdin finding: got %q", stdout.String())
	}
}

func TestRunMissingFile(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{"/nonexistent/path/patterns.re"},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitError {
		t.Errorf("exit code: got %d, want %d", code, ExitError)
	}
	if !strings.Contains(stderr.String(), "/nonexistent/path/patterns.re") {
		t.Errorf("error should name the file, got: %s", stderr.String())
	}
}

func TestRunReportsEveryMissingFile(t *testing.T) {
	good := writeFile(t, t.TempDir(), "good.re", optimized)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{"/nonexistent/a.re", good, "/nonexistent/b.re"},
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitError {
		t.Errorf("exit code: got %d, want %d", code, ExitError)
	}
	for _, name := range []string{"a.re", "b.re"} {
		if !strings.Contains(stderr.String(), name) {
			t.Errorf("stderr missing %s: %s", name, stderr.String())
		}
	}
	if stdout.String() != optimized {
		t.Errorf("readable file should still be printed, got %q", stdout.String())
	}
}

func TestRunMultipleFilesInOrder(t *testing.T) {
	dir := t.TempDir()
	files := make([]string, 0, 8)
	var want strings.Builder
	for i := range 8 {
		name := filepath.Join(dir, "p"+string(rune('a'+i))+".re")
		src := "/" + strings.Repeat(string(rune('a'+i)), 6) + "/\n"
		if err := os.WriteFile(name, []byte(src), 0o644); err != nil {
			t.Fatal(err)
		}
		files = append(files, name)
		want.WriteString("/" + string(rune('a'+i)) + "{6}/\n")
	}

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  files,
		Jobs:   3,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	if code != ExitOK {
		t.Errorf("exit code: got %d, want %d", code, ExitOK)
	}
	if stdout.String() != want.String() {
		t.Errorf("output order: got %q, want %q", stdout.String(), want.String())
	}
}

func TestRunMixedCheck(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.re", optimized)
	bad := writeFile(t, dir, "bad.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:  []string{good, bad},
		Check:  true,
		Stdout: &stdout,
		Stderr: &stderr,
	})

	// One file is optimizable, so exit code should be 1.
	if code != ExitChanges {
		t.Errorf("exit code: got %d, want %d", code, ExitChanges)
	}
}

func TestRunExcludedFiles(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "reopt.yml", "lint:\n  exclude:\n    - \"skip_*.re\"\n")
	skipped := writeFile(t, dir, "skip_me.re", optimizable)

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Files:      []string{skipped},
		Check:      true,
		ConfigPath: cfgPath,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})

	if code != ExitOK {
		t.Errorf("exit code: got %d, want %d", code, ExitOK)
	}
	if stdout.Len() != 0 {
		t.Errorf("excluded file produced output: %s", stdout.String())
	}
}

func TestRunInvalidConfig(t *testing.T) {
	cfgPath := writeFile(t, t.TempDir(), "reopt.yml", "optimizer:\n  max_repeat: 0\n")

	var stdout, stderr bytes.Buffer
	code := Run(&Options{
		Stdin:      strings.NewReader(optimizable),
		ConfigPath: cfgPath,
		Stdout:     &stdout,
		Stderr:     &stderr,
	})

	if code != ExitError {
		t.Errorf("exit code: got %d, want %d", code, ExitError)
	}
	if !strings.Contains(stderr.String(), "max_repeat") {
		t.Errorf("stderr should explain the config error, got: %s", stderr.String())
	}
}

func TestRunVerbose(t *testing.T) {
	path := writeFile(t, t.TempDir(), "patterns.re", "/foooooo/\n/(/\n")

	var stdout, stderr bytes.Buffer
	_ = Run(&Options{
		Files:   []string{path},
		Verbose: true,
		Stdout:  &stdout,
		Stderr:  &stderr,
	})

	if !bytes.Contains(stderr.Bytes(), []byte("patterns.re")) {
		t.Errorf("verbose mode should log the filename to stderr, got: %s", stderr.String())
	}
	if !bytes.Contains(stderr.Bytes(), []byte("skipping literal")) {
		t.Errorf("verbose mode should report unparseable literals, got: %s", stderr.String())
	}
	if !bytes.Contains(stderr.Bytes(), []byte("candidate accepted")) {
		t.Errorf("verbose mode should log accepted candidates, got: %s", stderr.String())
	}
}

func TestRewrite(t *testing.T) {
	opt, err := regexopt.New()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		input    string
		want     string
		findings []int
	}{
		{"empty", "", "", nil},
		{"comments and blanks", "# header\n\n/baz/i\n", "# header\n\n/baz/i\n", nil},
		{"rewrites literal", "/foooooo/\n", "/fo{6}/\n", []int{1}},
		{"keeps indentation", "  /[0-9]+/g  \n", "  /\\d+/g  \n", []int{1}},
		{"keeps flag order", "/[0-9]/mig\n", "/\\d/mig\n", []int{1}},
		{"keeps crlf", "/foooooo/\r\n/a/\r\n", "/fo{6}/\r\n/a/\r\n", []int{1}},
		{"no trailing newline", "/baz/\n/foooooo/", "/baz/\n/fo{6}/", []int{2}},
		{"bad literal kept", "/(/\nnot a literal\n/foooooo/\n", "/(/\nnot a literal\n/fo{6}/\n", []int{3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, findings := Rewrite("test.re", tt.input, opt, zerolog.Nop())
			if got != tt.want {
				t.Errorf("Rewrite() = %q, want %q", got, tt.want)
			}
			if len(findings) != len(tt.findings) {
				t.Fatalf("got %d findings, want %d", len(findings), len(tt.findings))
			}
			for i, f := range findings {
				if f.Line != tt.findings[i] {
					t.Errorf("finding %d: line %d, want %d", i, f.Line, tt.findings[i])
				}
			}
		})
	}
}
