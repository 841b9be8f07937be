package identity

import (
	"reflect"
	"testing"
)

func TestLocalUsername(t *testing.T) {
	if got := LocalUsername(DefaultPrefix, "alice"); got != "gh-alice" {
		t.Errorf("LocalUsername = %q, want gh-alice", got)
	}
}

func TestValidUsername(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"gh-alice", true},
		{"gh-bob_2", true},
		{"_svc", true},
		{"gh-Alice", true},
		{"gh-Mark-Simulacrum", true},
		{"gh-a b", false},
		{"gh-a\nb", false},
		{"-leading-dash", false},
		{"9lives", false},
		{"gh-a.b", false},
		{"gh-this-name-is-way-too-long-for-useradd", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := ValidUsername(tt.name); got != tt.want {
			t.Errorf("ValidUsername(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestManaged(t *testing.T) {
	tests := []struct {
		prefix, name string
		want         bool
	}{
		{"gh-", "gh-carol", true},
		{"gh-", "gh-", false},
		{"gh-", "root", false},
		{"gh-", "github", false},
		{"", "anything", false},
	}
	for _, tt := range tests {
		if got := Managed(tt.prefix, tt.name); got != tt.want {
			t.Errorf("Managed(%q, %q) = %v, want %v", tt.prefix, tt.name, got, tt.want)
		}
	}
}

func TestNormalize(t *testing.T) {
	got, err := Normalize([]string{"bob", "alice", "bob"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"alice", "bob"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", got, want)
	}

	got, err = Normalize(nil)
	if err != nil || len(got) != 0 {
		t.Errorf("Normalize(nil) = %v, %v", got, err)
	}

	if _, err := Normalize([]string{"alice", ""}); err == nil {
		t.Error("empty identity should be rejected")
	}
}
