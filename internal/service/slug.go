package service

import (
	"strings"

	"github.com/google/uuid"
)

// maxSlugProbes bounds the collision probe so a pathological slug space
// fails loudly instead of looping.
const maxSlugProbes = 100

// Slugify derives the base slug for a title: lowercase, every maximal run
// of characters outside [a-z0-9] collapsed to a single hyphen, no leading
// or trailing hyphen. A title with no usable characters yields a
// generated "post-xxxxxxxx" token so a slug is never empty.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	pendingHyphen := false
	for _, r := range strings.ToLower(title) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
		} else {
			pendingHyphen = true
		}
	}
	if b.Len() == 0 {
		return "post-" + uuid.New().String()[:8]
	}
	return b.String()
}
