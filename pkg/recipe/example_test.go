package recipe_test

import (
	"fmt"

	"github.com/matzehuels/spkwatch/pkg/recipe"
)

func ExampleInterpreter_Reevaluate() {
	in := recipe.Parse("PKG_VERS = 1.0\nPKG_DIST_NAME = foo-$(PKG_VERS).tar.gz")
	fmt.Println(in.Value("PKG_DIST_NAME", ""))

	in.Set("PKG_VERS", "9.9")
	fmt.Println(in.Reevaluate("PKG_DIST_NAME"))
	// Output:
	// foo-1.0.tar.gz
	// [foo-9.9.tar.gz]
}

func ExampleInterpreter_SafePatch() {
	in := recipe.Parse("PKG_VERS = 1.2.3 # keep\nPKG_DIST_NAME = foo-$(PKG_VERS).tar.gz")

	text, err := in.SafePatch("PKG_VERS", "1.2.4")
	fmt.Println(text, err)

	_, err = in.SafePatch("PKG_DIST_NAME", "foo.tar.gz")
	fmt.Println(err)
	// Output:
	// PKG_VERS = 1.2.4 # keep
	// PKG_DIST_NAME = foo-$(PKG_VERS).tar.gz <nil>
	// value derives from a call expression: PKG_DIST_NAME
}
