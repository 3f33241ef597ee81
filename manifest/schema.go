package manifest

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
)

// schemaSource constrains tuploid.toml. The definition is closed, so a
// misspelled key is an error instead of a silently ignored setting.
const schemaSource = `
#Manifest: {
	project?: {
		name?:    string
		version?: string
	}
	engine?: {
		"index-growth"?: bool
	}
	log?: {
		verbosity?: int & >=0 & <=9
		file?:      string
	}
	store?: {
		path?: string & !=""
	}
}
`

// validate checks the decoded TOML document against the manifest schema.
func validate(raw map[string]any) error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource)
	if err := schema.Err(); err != nil {
		return fmt.Errorf("manifest schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Manifest"))
	v := def.Unify(ctx.Encode(raw))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("%s", errors.Details(err, nil))
	}
	return nil
}
