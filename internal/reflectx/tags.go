package reflectx

import "strings"

// Tag is the parsed form of a `neko:"..."` struct tag: the compile-time
// annotations of spec.md §3 TagSet, recovered here at reflection time since
// Go has no macro-expansion phase to bake them in earlier.
//
// Grammar: `neko:"name,opt,opt,..."` where name is empty to mean "derive
// from the Go field name" and "-" to mean "skip this field entirely".
// Recognized options: skip (skippable), flatten, fixed (fixed_length), raw
// (raw_string), noname (array-shaped record, field has no wire name).
type Tag struct {
	Name        string
	Skip        bool // field excluded from (de)serialization entirely
	Skippable   bool // absence on decode is not an error
	Flatten     bool
	FixedLength bool
	RawString   bool
	NoName      bool
}

// ParseTag parses the raw struct tag value (already extracted via
// StructField.Tag.Get("neko")) together with the Go field name used as the
// default wire name.
func ParseTag(raw string, fieldName string) Tag {
	t := Tag{Name: fieldName}
	if raw == "" {
		return t
	}
	parts := strings.Split(raw, ",")
	if parts[0] == "-" {
		t.Skip = true
		return t
	}
	if parts[0] != "" {
		t.Name = parts[0]
	}
	for _, opt := range parts[1:] {
		switch strings.TrimSpace(opt) {
		case "skip", "skippable":
			t.Skippable = true
		case "flatten":
			t.Flatten = true
		case "fixed":
			t.FixedLength = true
		case "raw":
			t.RawString = true
		case "noname":
			t.NoName = true
		}
	}
	return t
}
