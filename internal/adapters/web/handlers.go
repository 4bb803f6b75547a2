package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"billing-backend/internal/app"
	"billing-backend/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	jwtSecret string
	log       zerolog.Logger
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, allowedOrigins []string, jwtSecret string, log zerolog.Logger) http.Handler {
	h := &Handler{
		svc:       svc,
		jwtSecret: jwtSecret,
		log:       log,
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer(log))
	r.Use(CORS(allowedOrigins))
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)

		r.Get("/api/auth/me", h.me)

		r.Route("/api/clients", func(r chi.Router) {
			r.Get("/", h.listClients)
			r.Post("/", h.createClient)
			r.Get("/{id}", h.getClient)
			r.Put("/{id}", h.updateClient)
			r.Delete("/{id}", h.deleteClient)
		})

		r.Route("/api/client-branches", func(r chi.Router) {
			r.Get("/", h.listClientBranches)
			r.Post("/", h.createClientBranch)
			r.Get("/{id}", h.getClientBranch)
			r.Put("/{id}", h.updateClientBranch)
			r.Delete("/{id}", h.deleteClientBranch)
		})

		r.Route("/api/client-departments", func(r chi.Router) {
			r.Get("/", h.listClientDepartments)
			r.Post("/", h.createClientDepartment)
			r.Get("/{id}", h.getClientDepartment)
			r.Put("/{id}", h.updateClientDepartment)
			r.Delete("/{id}", h.deleteClientDepartment)
		})

		r.Route("/api/machines", func(r chi.Router) {
			r.Get("/", h.listMachines)
			r.Post("/", h.createMachine)
			r.Get("/{id}", h.getMachine)
			r.Put("/{id}", h.updateMachine)
			r.Delete("/{id}", h.deleteMachine)
		})

		r.Route("/api/billings", func(r chi.Router) {
			r.Get("/", h.listBillings)
			r.Post("/", h.createBilling)
			r.Post("/bulk", h.createBillings)
			r.Get("/{id}", h.getBilling)
			r.Put("/{id}", h.updateBilling)
			r.Post("/{id}/cancel", h.cancelBilling)
		})

		r.Route("/api/collections", func(r chi.Router) {
			r.Get("/", h.listCollections)
			r.Get("/aging", h.collectionAging)
			r.Get("/{id}", h.getCollection)
			r.Put("/{id}", h.updateCollection)
			r.Post("/{id}/payments", h.recordPayment)
		})

		r.Route("/api/payments", func(r chi.Router) {
			r.Get("/", h.listPayments)
			r.Get("/{id}", h.getPayment)
			r.Put("/{id}", h.updatePayment)
			r.Post("/{id}/cancel", h.cancelPayment)
		})

		// Account and org management is restricted to the admin tiers.
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(core.RoleOwner, core.RoleManager))

			r.Route("/api/users", func(r chi.Router) {
				r.Get("/", h.listUsers)
				r.Post("/", h.createUser)
				r.Get("/{id}", h.getUser)
				r.Delete("/{id}", h.deleteUser)
			})

			r.Route("/api/departments", func(r chi.Router) {
				r.Get("/", h.listDepartments)
				r.Post("/", h.createDepartment)
				r.Get("/{id}", h.getDepartment)
				r.Put("/{id}", h.updateDepartment)
				r.Delete("/{id}", h.deleteDepartment)
			})
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeJSON decodes the request body into v, writing the error response
// itself on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// pathID parses the {id} route parameter, writing the error response itself
// on failure.
func pathID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "invalid id", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func queryInt(r *http.Request, name string) int {
	v, _ := strconv.Atoi(r.URL.Query().Get(name))
	return v
}

// listParams reads the shared pagination query parameters, applying the
// defaults for absent values.
func listParams(r *http.Request) core.ListParams {
	p := core.ListParams{
		PageIndex: queryInt(r, "page"),
		PageSize:  queryInt(r, "page_size"),
		Search:    r.URL.Query().Get("search"),
	}
	if p.PageIndex == 0 {
		p.PageIndex = 1
	}
	if p.PageSize == 0 {
		p.PageSize = 20
	}
	return p
}
