package packages

import (
	stderrors "errors"

	"github.com/matzehuels/spkwatch/pkg/errors"
	"github.com/matzehuels/spkwatch/pkg/recipe"
)

// PatchResult is the outcome of writing one selected version back.
type PatchResult struct {
	ID      string
	From    string
	To      string
	Written bool
	Err     error
}

// Patch rewrites PKG_VERS in the recipe of every result that has an
// update and uses a crawled download method. Recipes whose PKG_VERS is
// computed are left untouched and reported with ErrCodeUnsafePatch. When
// dryRun is set nothing is written.
func Patch(reg *Registry, results []Result, dryRun bool) []PatchResult {
	var out []PatchResult
	for _, r := range results {
		if r.Err != nil || !r.HasUpdate || !r.Method.Crawled() {
			continue
		}
		pr := PatchResult{ID: r.ID, From: r.Current, To: r.Next}
		pr.Written, pr.Err = patchOne(reg, r, dryRun)
		out = append(out, pr)
	}
	return out
}

func patchOne(reg *Registry, r Result, dryRun bool) (bool, error) {
	rec, ok := reg.Get(r.ID)
	if !ok {
		return false, errors.New(errors.ErrCodeInvalidPackage, "unknown package %s", r.ID)
	}
	in, err := recipe.ParseFile(rec.RecipePath)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeNotFound, err, "read recipe")
	}
	if _, err := in.SafePatch(recipe.VarVersion, r.Next); err != nil {
		return false, errors.Wrap(codeFor(err), err, "patch %s", recipe.VarVersion)
	}
	if dryRun {
		return false, nil
	}
	in.Set(recipe.VarVersion, r.Next)
	if err := in.Update(recipe.VarVersion); err != nil {
		return false, errors.Wrap(codeFor(err), err, "patch %s", recipe.VarVersion)
	}
	if err := in.WriteFile(rec.RecipePath); err != nil {
		return false, errors.Wrap(errors.ErrCodeInternal, err, "write recipe")
	}
	rec.Metadata.Version = r.Next
	return true, nil
}

func codeFor(err error) errors.Code {
	switch {
	case stderrors.Is(err, recipe.ErrUnsafePatch):
		return errors.ErrCodeUnsafePatch
	case stderrors.Is(err, recipe.ErrUndefined):
		return errors.ErrCodeVersionNotFound
	}
	return errors.ErrCodeInternal
}
