package webconsole

import (
	"net/http"
	"net/url"
)

// redirect is htmx aware: htmx requests get HX-Redirect instead of a 303
func redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusNoContent)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// redirectWithError sends the browser back to path with an error message,
// keeping the remembered location.
func redirectWithError(w http.ResponseWriter, r *http.Request, path, errorMsg, from string) {
	q := url.Values{"error": {errorMsg}}
	if from != "" {
		q.Set("from", from)
	}
	redirect(w, r, path+"?"+q.Encode())
}
