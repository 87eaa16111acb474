package views

import "strings"

// View holds the registration settings shared by all admin views: naming,
// routing root and capability flags. Views are created once at startup and
// never mutated after their routes are registered.
type View struct {
	Name     string
	Category string
	Endpoint string
	URL      string

	CanCreate      bool
	CanEdit        bool
	CanDelete      bool
	CanViewDetails bool
	CanExport      bool

	PageSize int

	ListTemplate    string
	FormTemplate    string
	DetailsTemplate string
}

// NewView returns a view with defaults derived from the human-readable name.
func NewView(name string) View {
	endpoint := DeriveEndpoint(name)
	return View{
		Name:     name,
		Endpoint: endpoint,
		URL:      "/" + endpoint,

		CanCreate:      true,
		CanEdit:        true,
		CanDelete:      true,
		CanViewDetails: true,
		CanExport:      true,

		ListTemplate:    "admin/list.html",
		FormTemplate:    "admin/form.html",
		DetailsTemplate: "admin/details.html",
	}
}

// DeriveEndpoint lower-cases the name and replaces spaces with underscores.
// The result identifies the view within a registry and must be unique there.
func DeriveEndpoint(name string) string {
	return strings.ReplaceAll(strings.ToLower(name), " ", "_")
}
