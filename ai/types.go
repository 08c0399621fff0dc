package ai

// EntityTypes defines the valid categories for recognized entities.
// These types are used by entity recognizers to classify mentions.
// Entity identity is (name, type), so recognizers must apply these
// categories consistently or entities will spuriously fragment.
var EntityTypes = []string{
	"date",
	"event",
	"facility",
	"language",
	"law",
	"location",
	"money",
	"nationality",
	"organization",
	"percent",
	"person",
	"place",
	"product",
	"quantity",
	"time",
	"work_of_art",
}
