package perm_test

import (
	"testing"

	"github.com/parleyhq/parley/internal/perm"
	"github.com/stretchr/testify/assert"
)

func TestIsValid(t *testing.T) {
	valid := []perm.Mask{1, 2, 4}
	for _, p := range valid {
		assert.True(t, perm.IsValid(p), "mask %d should be valid", p)
	}

	invalid := []perm.Mask{0, 3, 5, 6, 7, 8, perm.Mask(0xFFFFFFFF)}
	for _, p := range invalid {
		assert.False(t, perm.IsValid(p), "mask %d should be invalid", p)
	}
}

func TestCheckAdminOverride(t *testing.T) {
	// Admin passes every check, including requirements sharing no other bit.
	admin := perm.Admin
	for _, required := range []perm.Mask{0, 1, 2, 4, 6, perm.ReadAnalytics | perm.ReadConversations, 1 << 30} {
		assert.True(t, perm.Check(admin, required), "admin should satisfy %d", required)
	}
}

func TestCheckNonAdmin(t *testing.T) {
	cases := []struct {
		name        string
		permissions perm.Mask
		required    perm.Mask
		want        bool
	}{
		{"exact bit", perm.ReadAnalytics, perm.ReadAnalytics, true},
		{"disjoint bit", perm.ReadAnalytics, perm.ReadConversations, false},
		{"union against single", perm.ReadAnalytics | perm.ReadConversations, perm.ReadConversations, true},
		{"single against union", perm.ReadConversations, perm.ReadAnalytics | perm.ReadConversations, true},
		{"no permissions", 0, perm.ReadAnalytics, false},
		{"zero requirement", perm.ReadAnalytics, 0, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, perm.Check(tc.permissions, tc.required))
			assert.Equal(t, tc.permissions&tc.required != 0, perm.Check(tc.permissions, tc.required))
		})
	}
}

func TestToggleIsItsOwnInverse(t *testing.T) {
	masks := []perm.Mask{0, perm.Admin, perm.ReadAnalytics, perm.Admin | perm.ReadConversations, 7}
	bits := []perm.Mask{perm.Admin, perm.ReadAnalytics, perm.ReadConversations}

	for _, p := range masks {
		for _, b := range bits {
			assert.Equal(t, p, perm.Toggle(perm.Toggle(p, b), b))
		}
	}
}

func TestToggleFlipsExactlyOneBit(t *testing.T) {
	p := perm.ReadAnalytics | perm.ReadConversations

	got := perm.Toggle(p, perm.ReadAnalytics)
	assert.Equal(t, perm.ReadConversations, got)

	got = perm.Toggle(got, perm.Admin)
	assert.Equal(t, perm.Admin|perm.ReadConversations, got)
}
