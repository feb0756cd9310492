package handlers

import (
	"net/http"

	"github.com/farmily/fhs/utils"
)

// HandleAdminDashboard handles GET /api/admin/dashboard. Access is enforced
// by the route policy, not here.
func HandleAdminDashboard(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteMessage(w, nil, "Welcome Admin!")
}

// HandleError handles /error, the public landing route for failed requests
func HandleError(w http.ResponseWriter, r *http.Request) {
	_ = utils.WriteError(w, http.StatusInternalServerError, "An error occurred", nil)
}
