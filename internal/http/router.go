package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Events *EventHandler
	Rooms  *RoomHandler
	Users  *UserHandler
	// Authenticate wraps every route except signup.
	Authenticate func(http.Handler) http.Handler
	Middleware   []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()
	protect := cfg.Authenticate
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}
	handle := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, protect(fn))
	}

	if cfg.Events != nil {
		handle("/calendar-events", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Events.List(w, r)
			case http.MethodPost:
				cfg.Events.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handle("/calendar-events.ics", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Events.Export(w, r)
		})
		handle("/calendar-events/", withResourceID("/calendar-events/", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Events.Get(w, r)
		}))
	}

	if cfg.Rooms != nil {
		handle("/conference-rooms", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.List(w, r)
			case http.MethodPost:
				cfg.Rooms.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		handle("/conference-rooms/", withResourceID("/conference-rooms/", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Rooms.Get(w, r)
			case http.MethodDelete:
				cfg.Rooms.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodDelete)
			}
		}))
	}

	if cfg.Users != nil {
		mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.Register(w, r)
		})
		handle("/users/me", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.Me(w, r)
			case http.MethodPatch:
				cfg.Users.Update(w, r)
			case http.MethodDelete:
				cfg.Users.Delete(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPatch, http.MethodDelete)
			}
		})
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

// withResourceID strips prefix from the path and stores the remaining
// segment in the request context. Nested paths are not routed.
func withResourceID(prefix string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.Trim(strings.TrimPrefix(r.URL.Path, prefix), "/")
		if id == "" || strings.Contains(id, "/") {
			http.NotFound(w, r)
			return
		}
		next(w, r.WithContext(ContextWithResourceID(r.Context(), id)))
	}
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}
