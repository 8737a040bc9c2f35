package intent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickMatch(t *testing.T) {
	tests := []struct {
		query       string
		wantMatch   bool
		wantSubtype string
	}{
		{"hi", true, SubtypeGreeting},
		{"Hello!!", true, SubtypeGreeting},
		{"good morning", true, SubtypeGreeting},
		{"Bonjour", true, SubtypeGreeting},
		{"salut !", true, SubtypeGreeting},
		{"salam", true, SubtypeGreeting},
		{"Salam 3likom", true, SubtypeGreeting},
		{"labas", true, SubtypeGreeting},
		{"السلام عليكم", true, SubtypeGreeting},
		{"صباح الخير", true, SubtypeGreeting},
		{"who are you?", true, SubtypeIdentity},
		{"qui es-tu ?", true, SubtypeIdentity},
		{"chkoun nta", true, SubtypeIdentity},
		{"شكون نتا", true, SubtypeIdentity},
		{"من أنت", true, SubtypeIdentity},
		{"thanks", true, SubtypeThanks},
		{"merci beaucoup", true, SubtypeThanks},
		{"choukran bzf", true, SubtypeThanks},
		{"شكرا جزيلا", true, SubtypeThanks},
		{"ok", true, SubtypeSmalltalk},
		{"d'accord", true, SubtypeSmalltalk},
		{"wakha", true, SubtypeSmalltalk},

		// Anything beyond a pure salutation must reach the classifier.
		{"", false, ""},
		{"   ", false, ""},
		{"salam, bghit nsewlek 3la ta9alid lkhedma", false, ""},
		{"bonjour, mon employeur refuse de me payer", false, ""},
		{"what are my rights after dismissal?", false, ""},
		{"شكرا ولكن عندي سؤال آخر حول الطلاق", false, ""},
		{"hello my landlord kept my deposit", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			it, ok := QuickMatch(tt.query)

			assert.Equal(t, tt.wantMatch, ok)
			if tt.wantMatch {
				assert.Equal(t, TypeCasual, it.Type)
				assert.Equal(t, tt.wantSubtype, it.Subtype)
			} else {
				assert.Nil(t, it)
			}
		})
	}
}

func TestQuickMatchIgnoresLongMessages(t *testing.T) {
	long := "salam " + strings.Repeat("a", quickMatchMaxLen)

	_, ok := QuickMatch(long)

	assert.False(t, ok)
}
