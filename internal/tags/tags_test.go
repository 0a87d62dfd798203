package tags

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalizeTag(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"synonym", "auth", "authentication"},
		{"synonym mixed case and spaces", "  OAuth2 ", "authentication"},
		{"canonical label maps to itself", "billing", "billing"},
		{"multi-word synonym", "Row Level Security", "authorization"},
		{"unknown passes through lower-cased", "  Kafka Streams ", "kafka streams"},
		{"empty", "", ""},
		{"whitespace only", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeTag(tt.in); got != tt.want {
				t.Errorf("NormalizeTag(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeTag_Idempotent(t *testing.T) {
	inputs := []string{"Auth", "login", "STRIPE", "  k8s", "something new", "", "Éclair", "db"}
	for _, label := range canonicalOrder {
		inputs = append(inputs, label, strings.ToUpper(label))
		inputs = append(inputs, dictionary[label]...)
	}

	for _, in := range inputs {
		once := NormalizeTag(in)
		if twice := NormalizeTag(once); twice != once {
			t.Errorf("NormalizeTag not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestNormalizeTags_CaseInsensitiveDedup(t *testing.T) {
	got := NormalizeTags([]string{"Auth", "auth", "AUTH"})
	if diff := cmp.Diff([]string{"authentication"}, got); diff != "" {
		t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTags_SynonymsCollapse(t *testing.T) {
	got := NormalizeTags([]string{"login", "JWT", "stripe", "payments", "react", "kafka"})
	want := []string{"authentication", "billing", "frontend", "kafka"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTags_DropsShortTags(t *testing.T) {
	got := NormalizeTags([]string{"x", "ab", " c ", "abc", ""})
	if diff := cmp.Diff([]string{"abc"}, got); diff != "" {
		t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTags_ShortSynonymsSurviveThroughTheirLabel(t *testing.T) {
	// "ui" and "db" are too short on their own but normalize to long labels.
	got := NormalizeTags([]string{"ui", "db"})
	if diff := cmp.Diff([]string{"frontend", "database"}, got); diff != "" {
		t.Errorf("NormalizeTags mismatch (-want +got):\n%s", diff)
	}
}

func TestNormalizeTags_Empty(t *testing.T) {
	if got := NormalizeTags(nil); len(got) != 0 {
		t.Errorf("NormalizeTags(nil) = %v, want empty", got)
	}
}

func TestCanonicalLabelsAreLongEnough(t *testing.T) {
	for _, label := range Canonical() {
		if len(label) < MinTagLength {
			t.Errorf("canonical label %q is shorter than %d", label, MinTagLength)
		}
		if _, ok := dictionary[label]; !ok {
			t.Errorf("canonical label %q has no dictionary entry", label)
		}
	}
	if len(Canonical()) != len(dictionary) {
		t.Errorf("canonicalOrder has %d labels, dictionary has %d", len(Canonical()), len(dictionary))
	}
}
