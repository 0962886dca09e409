// Package genre provides the canonical category taxonomy and classification
// of free-text category strings from external sources.
package genre

// Tag is a canonical genre tag.
type Tag string

// CanonicalTags is the fixed taxonomy books are classified into.
// Matching order matters: classification returns the first tag hit,
// so broader tags that share tokens with earlier ones stay later.
// Read-only after init, safe for concurrent use.
var CanonicalTags = []Tag{
	"ANTIQUES & COLLECTIBLES",
	"ARCHITECTURE",
	"ART",
	"BIBLES",
	"BIOGRAPHY & AUTOBIOGRAPHY",
	"BODY MIND & SPIRIT",
	"BUSINESS & ECONOMICS",
	"COMICS & GRAPHIC NOVELS",
	"COMPUTERS",
	"COOKING",
	"CRAFTS & HOBBIES",
	"DESIGN",
	"DRAMA",
	"EDUCATION",
	"FAMILY & RELATIONSHIPS",
	"FICTION",
	"FOREIGN LANGUAGE STUDY",
	"GAMES & ACTIVITIES",
	"GARDENING",
	"HEALTH & FITNESS",
	"HISTORY",
	"HOUSE & HOME",
	"HUMOR",
	"JUVENILE FICTION",
	"JUVENILE NONFICTION",
	"LANGUAGE ARTS & DISCIPLINES",
	"LAW",
	"LITERARY COLLECTIONS",
	"LITERARY CRITICISM",
	"MATHEMATICS",
	"MEDICAL",
	"MUSIC",
	"NATURE",
	"PERFORMING ARTS",
	"PETS",
	"PHILOSOPHY",
	"PHOTOGRAPHY",
	"POETRY",
	"POLITICAL SCIENCE",
	"PSYCHOLOGY",
	"REFERENCE",
	"RELIGION",
	"SCIENCE",
	"SELF-HELP",
	"SOCIAL SCIENCE",
	"SPORTS & RECREATION",
	"STUDY AIDS",
	"TECHNOLOGY & ENGINEERING",
	"TRANSPORTATION",
	"TRAVEL",
	"TRUE CRIME",
	"YOUNG ADULT FICTION",
	"YOUNG ADULT NONFICTION",
}

// IsCanonical reports whether s is one of the canonical tags.
func IsCanonical(s string) bool {
	for _, t := range CanonicalTags {
		if string(t) == s {
			return true
		}
	}
	return false
}
