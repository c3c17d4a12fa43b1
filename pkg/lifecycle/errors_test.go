package lifecycle

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestGeneratorErrorFormatting(t *testing.T) {
	err := NewConfigInvalidError("bad namespace", errors.New("not a dns label")).
		WithPhase(PhaseConfiguring, "save-config")

	msg := err.Error()
	for _, want := range []string{"config_invalid", "bad namespace", "configuring", "save-config", "not a dns label"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message %q missing %q", msg, want)
		}
	}
}

func TestErrorPredicates(t *testing.T) {
	cases := []struct {
		err   error
		check func(error) bool
		want  bool
	}{
		{NewCheckFailedError("x", nil), IsCheckFailed, true},
		{NewConfigInvalidError("x", nil), IsConfigInvalid, true},
		{NewExternalProcessError("x", nil), IsExternalProcess, true},
		{errors.New("plain"), IsCheckFailed, false},
		{fmt.Errorf("wrapped: %w", NewConfigInvalidError("x", nil)), IsConfigInvalid, true},
	}
	for i, tc := range cases {
		if got := tc.check(tc.err); got != tc.want {
			t.Errorf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
}

func TestClassifyPassesThroughAndWraps(t *testing.T) {
	orig := NewCheckFailedError("docker missing", nil)
	if classify(orig) != orig {
		t.Error("classified errors must pass through unchanged")
	}

	wrapped := classify(errors.New("boom"))
	if wrapped.Kind != KindInternal {
		t.Errorf("unclassified errors become internal faults, got %s", wrapped.Kind)
	}
}

func TestErrorsIsMatchesOnKind(t *testing.T) {
	err := NewConfigInvalidError("x", nil)
	if !errors.Is(err, &GeneratorError{Kind: KindConfigInvalid}) {
		t.Error("errors.Is should match on kind")
	}
	if errors.Is(err, &GeneratorError{Kind: KindInternal}) {
		t.Error("errors.Is should not match a different kind")
	}
}
