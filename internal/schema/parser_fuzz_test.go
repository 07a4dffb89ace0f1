package schema

import "testing"

// ParseLenient returns a schema for any input and never panics. Parse agrees
// with it whenever Parse succeeds.
func FuzzParseLenient(f *testing.F) {
	for _, seed := range []string{
		userDDL,
		scriptedDDL,
		"CREATE TABLE [T] ([A] INT DEFAULT ((0)), [B] NVARCHAR(MAX) NULL)",
		`CREATE TABLE "public"."t" ("id" BIGSERIAL, "at" TIMESTAMP WITH TIME ZONE)`,
		"CREATE TABLE [T] ([A] DECIMAL(10,2), CONSTRAINT [PK] PRIMARY KEY ([A]))",
		"CREATE TABLE [T] ([A] VARCHAR(",
		"CREATE TABLE ['] (",
		"))))((((",
		"",
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, ddl string) {
		lenient := ParseLenient(ddl)
		strict, err := Parse(ddl)
		if err != nil {
			if !lenient.IsEmpty() {
				t.Fatalf("lenient parse kept %v although Parse failed: %v", lenient.Names(), err)
			}
			return
		}
		if !strict.Equal(lenient) {
			t.Fatalf("Parse %v and ParseLenient %v disagree", strict.Names(), lenient.Names())
		}
	})
}
