package env

import "testing"

func TestGetFallsBackOnBlank(t *testing.T) {
	t.Setenv("IMPORTGROUPS_TEST_VALUE", "   ")
	if got := Get("IMPORTGROUPS_TEST_VALUE", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}

	t.Setenv("IMPORTGROUPS_TEST_VALUE", " console ")
	if got := Get("IMPORTGROUPS_TEST_VALUE", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestFirstOfPrefersEarlierKeys(t *testing.T) {
	t.Setenv("IMPORTGROUPS_TEST_A", "")
	t.Setenv("IMPORTGROUPS_TEST_B", "b")
	t.Setenv("IMPORTGROUPS_TEST_C", "c")
	if got := FirstOf("IMPORTGROUPS_TEST_A", "IMPORTGROUPS_TEST_B", "IMPORTGROUPS_TEST_C"); got != "b" {
		t.Fatalf("expected b, got %q", got)
	}
	if got := FirstOf("IMPORTGROUPS_TEST_UNSET"); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}
