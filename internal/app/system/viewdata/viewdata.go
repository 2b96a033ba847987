package viewdata

import (
	"net/http"

	"github.com/dalemusser/clinica/internal/app/system/auth"
	"github.com/dalemusser/clinica/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/httpnav"
)

// SiteName is shown in the page header and title.
const SiteName = "Clínica Salud Integral"

// BaseVM contains common fields for all view models.
// Embed this struct in your feature-specific view models.
//
// Usage:
//
//	type myPageData struct {
//	    viewdata.BaseVM
//	    // page-specific fields...
//	}
//
//	data := myPageData{
//	    BaseVM: viewdata.NewBaseVM(r, "Page Title", "/default-back"),
//	    // page-specific fields...
//	}
type BaseVM struct {
	SiteName string

	// User context (from auth middleware)
	IsLoggedIn bool
	Role       string
	UserName   string
	Landing    string // the user's own home page

	// Page context
	Title       string
	BackURL     string
	CurrentPath string

	// Banner shown above page content when data could not be loaded.
	Error string
}

// NewBaseVM creates a fully populated BaseVM for a page.
func NewBaseVM(r *http.Request, title, backDefault string) BaseVM {
	vm := BaseVM{
		SiteName:    SiteName,
		Title:       title,
		BackURL:     httpnav.ResolveBackURL(r, backDefault),
		CurrentPath: httpnav.CurrentPath(r),
		Landing:     auth.LoginPath,
	}
	if u, ok := auth.CurrentUser(r); ok {
		vm.IsLoggedIn = true
		vm.Role = u.Role.String()
		vm.UserName = u.DisplayName()
		vm.Landing = auth.LandingPath(u.Role)
	}
	return vm
}

// IsAdmin is a template helper.
func (vm BaseVM) IsAdmin() bool { return vm.Role == models.RoleAdministrativo.String() }
