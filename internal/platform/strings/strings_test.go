package strings

import (
	"testing"

	kit "arguxai/internal/platform/testkit"
)

func TestMustPrefix(t *testing.T) {
	for in, want := range map[string]string{"issues": "/issues", "/issues/": "/issues", " detect ": "/detect"} {
		if got := MustPrefix(in); got != want {
			t.Fatalf("MustPrefix(%q) = %q", in, got)
		}
	}
	kit.MustPanic(t, func() { MustPrefix(" / ") })
}

func TestNullHelpers(t *testing.T) {
	if SQLNull("  ") != nil || SQLNull("x") != "x" {
		t.Fatalf("SQLNull")
	}
	if Deref(nil) != "" || Deref(Ptr("a")) != "a" || Ptr("") != nil {
		t.Fatalf("Ptr/Deref")
	}
}

func TestCompact(t *testing.T) {
	if got := Compact("login_button-click now"); got != "loginbuttonclicknow" {
		t.Fatalf("Compact = %q", got)
	}
}
