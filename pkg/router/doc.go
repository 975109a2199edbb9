// Package router resolves URLs and route names against a composed route
// tree and drives navigation between resolved routes.
//
// The router provides:
//   - Name and URL lookup (Find, Lookup) returning typed params
//   - URL assembly from a route name and params (Resolve)
//   - Push and Replace navigation with before and after hooks
//   - Redirect following between registered routes
//   - An observable current route (Current, Subscribe)
//
// # Usage
//
//	r, err := router.New([]route.Definition{
//	    {Name: "home", Path: "/"},
//	    {Name: "user", Path: "/users/[id]"},
//	})
//	if err != nil {
//	    return err
//	}
//
//	resolved, ok := r.Find("/users/42", nil)
//	// resolved.Name == "user", resolved.Params["id"] == "42"
//
//	href, err := r.Resolve("user", map[string]any{"id": 42})
//	// href == "/users/42"
//
// # Hooks
//
// Hooks registered with BeforeEach, and the BeforeEnter hooks of the
// routes being entered, run before a navigation commits. A hook controls
// the navigation with the error it returns:
//
//	r.BeforeEach(func(ctx context.Context, to, from *route.ResolvedRoute) error {
//	    if to.Name == "admin" && !signedIn(ctx) {
//	        return router.Redirect("login", nil)
//	    }
//	    return nil
//	})
//
// Reject replaces the destination with a rejection, Redirect starts over at
// another route and any other error aborts the navigation. Hook registries
// belong to the router value; there is no package-level state.
//
// Navigations are last-write-wins: a navigation that was superseded while
// its hooks ran returns ErrSuperseded and does not commit.
package router
