package regexopt

import (
	"errors"
	"testing"

	"github.com/donaldgifford/reopt/internal/parser"
)

func FuzzOptimize(f *testing.F) {
	seeds := []struct{ src, flags string }{
		{`[a-zA-Z_0-9][A-Z_\da-z]*\e{1,}`, ""},
		{`foooooo`, ""},
		{`baz`, "i"},
		{`[/\\]$`, ""},
		{`(a)\1[0]`, ""},
		{`\x\x41{2`, ""},
		{`(?<n>a)\k<n>aaaa`, ""},
		{`\u{1F600}\u{1F600}\u{1F600}\u{1F600}`, "u"},
		{`[\w\u017F\u212A]`, "iu"},
		{`a{2}?a{3}?`, ""},
		{`{1,2}{`, ""},
	}
	for _, s := range seeds {
		f.Add(s.src, s.flags)
	}

	o, err := New()
	if err != nil {
		f.Fatal(err)
	}

	f.Fuzz(func(t *testing.T, src, flags string) {
		res, err := o.Optimize(src, flags)
		if errors.Is(err, ErrInternal) {
			t.Fatalf("Optimize(%q, %q): %v", src, flags, err)
		}
		if err != nil {
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("Optimize(%q, %q) returned %T, want *ParseError", src, flags, err)
			}
			return
		}
		if !res.Changed {
			if res.Optimized != src {
				t.Fatalf("unchanged result %q differs from source %q", res.Optimized, src)
			}
			return
		}

		if len(res.Optimized) > len(src) {
			t.Fatalf("%q grew to %q", src, res.Optimized)
		}
		fl, _ := parser.ParseFlags(flags)
		if _, err := parser.Parse(res.Optimized, fl); err != nil {
			t.Fatalf("output %q of %q does not parse: %v", res.Optimized, src, err)
		}
		// Output of a valid literal body stays a valid literal body.
		if q, err := parser.ParseLiteral("/" + src + "/" + flags); err != nil || q.Source != src {
			return
		}
		p, err := parser.ParseLiteral("/" + res.Optimized + "/" + flags)
		if err != nil || p.Source != res.Optimized {
			t.Fatalf("output %q is not a valid literal body: %v", res.Optimized, err)
		}
	})
}
