package dynaexpr

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"status", "status"},
		{"first-name", "firstname"},
		{"a b/c", "abc"},
		{"snake_case_9", "snake_case_9"},
		{"données", "donnes"},
		{"", ""},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Sanitize(tt.in), "Sanitize(%q)", tt.in)
	}
}

func TestResolvePath(t *testing.T) {
	t.Run("single segment", func(t *testing.T) {
		ref, names := ResolvePath("first-name", FilterNamePrefix)
		require.Equal(t, "#attr_firstname", ref)
		require.Equal(t, map[string]string{"#attr_firstname": "first-name"}, names)
	})

	t.Run("nested", func(t *testing.T) {
		ref, names := ResolvePath("user.profile.id", FilterNamePrefix)
		require.Equal(t, "#attr_user.#attr_profile.#attr_id", ref)
		require.Equal(t, map[string]string{
			"#attr_user":    "user",
			"#attr_profile": "profile",
			"#attr_id":      "id",
		}, names)
	})

	t.Run("key prefix", func(t *testing.T) {
		ref, names := ResolvePath("pk", KeyNamePrefix)
		require.Equal(t, "#key_pk", ref)
		require.Equal(t, map[string]string{"#key_pk": "pk"}, names)
	})

	t.Run("deterministic", func(t *testing.T) {
		ref1, names1 := ResolvePath("a.b", FilterNamePrefix)
		ref2, names2 := ResolvePath("a.b", FilterNamePrefix)
		require.Equal(t, ref1, ref2)
		require.Equal(t, names1, names2)
	})
}

func TestSegments(t *testing.T) {
	require.Equal(t, []string{"a", "b", "c"}, Segments("a.b.c"))
	require.Equal(t, []string{"a"}, Segments("a"))
}

// Segments that sanitize to the same token share a placeholder. The later
// segment wins the name table entry, so the two attributes cannot be told apart.
func TestSanitizeCollision(t *testing.T) {
	p := Equals("a-b", String("x")).And(Equals("ab", String("y")))

	require.Equal(t, "#attr_ab = :val_ab AND #attr_ab = :val_ab_1", p.Expression())
	require.Equal(t, map[string]string{"#attr_ab": "ab"}, p.Names())
	require.Len(t, p.Values(), 2)
}
