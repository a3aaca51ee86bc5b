// Package httpapi is the HTTP transport binding: one POST route per skill, a
// chain route, and read-only manifest/metrics/describe routes. Meant for
// same-machine callers; responses are raw handler output with no correlation
// id wrapping.
package httpapi

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"

	"github.com/emberline/skillbus/pkg/dispatcher"
	"github.com/emberline/skillbus/pkg/manifest"
	"github.com/emberline/skillbus/pkg/protocol"
	"github.com/emberline/skillbus/pkg/skills"
)

const logPrefix = "httpapi:handler"

// API serves the HTTP binding over one dispatcher instance.
type API struct {
	disp *dispatcher.Dispatcher
	node string
}

// New creates an API.
func New(disp *dispatcher.Dispatcher, node string) *API {
	return &API{disp: disp, node: node}
}

// Router builds the chi router with all skill routes mounted.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/", a.handleHome)
	r.Get("/healthz", a.handleHealthz)
	r.Post("/skill/chain", a.handleChain)
	r.Post("/skill/{name}", a.handleSkill)
	r.Get("/skill/{name}/describe", a.handleDescribe)
	r.Get("/skills", a.handleManifest)
	r.Get("/skills/metrics", a.handleMetrics)
	return r
}

// skillRequest is the POST body for single-skill routes; it maps directly to
// the input shape.
type skillRequest struct {
	Text    string                 `json:"text"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// chainRequest is the POST body for the chain route.
type chainRequest struct {
	Skills  []string               `json:"skills"`
	Text    string                 `json:"text"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// errorBody is the non-2xx response shape shared by every route.
type errorBody struct {
	OK    bool            `json:"ok"`
	Error *protocol.Fault `json:"error"`
}

func (a *API) handleHome(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"node":   a.node,
		"skills": len(a.disp.Registry().List()),
	})
}

func (a *API) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleSkill(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req skillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, protocol.NewFault(protocol.CodeInvalidCall, "invalid request body"))
		return
	}

	// Internal skills are loopback-only at the transport layer; the check
	// runs before the dispatcher is ever reached.
	if def, ok := a.disp.Registry().Get(name); ok && def.Tier == skills.TierInternal && !isLoopback(r.RemoteAddr) {
		writeFault(w, protocol.NewFault(protocol.CodeAccessDenied, fmt.Sprintf("skill %q is internal: loopback only", name)))
		return
	}

	msg := protocol.NewCallMessage(a.callerID(r), name, uuid.NewString(), protocol.Input{Text: req.Text, Context: req.Context})
	output, err := a.disp.HandleCall(r.Context(), msg, msg.From)
	if err != nil {
		writeFault(w, protocol.FaultFrom(err))
		return
	}

	// Raw handler output, no ResultMessage wrapping: same-machine callers
	// need no correlation id.
	writeJSON(w, http.StatusOK, output)
}

func (a *API) handleChain(w http.ResponseWriter, r *http.Request) {
	var req chainRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFault(w, protocol.NewFault(protocol.CodeInvalidChain, "invalid request body"))
		return
	}

	msg := protocol.NewChainMessage(a.callerID(r), req.Skills, uuid.NewString(), protocol.Input{Text: req.Text, Context: req.Context})
	outcome, err := a.disp.HandleChain(r.Context(), msg, msg.From)
	if err != nil {
		writeFault(w, protocol.FaultFrom(err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results":     outcome.Results,
		"synthesized": outcome.Synthesized,
	})
}

func (a *API) handleDescribe(w http.ResponseWriter, r *http.Request) {
	entry, err := a.disp.HandleDescribe(chi.URLParam(r, "name"))
	if err != nil {
		writeFault(w, protocol.FaultFrom(err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (a *API) handleManifest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, manifest.Build(a.node, a.disp.Registry()))
}

func (a *API) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, a.disp.Metrics())
}

// callerID derives the dispatcher caller identity from the peer address.
// Loopback peers map to the "local" sentinel so the access classifier agrees
// with the transport check; remote peers are keyed (and rate limited) by IP.
func (a *API) callerID(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return "local"
	}
	return host
}

// isLoopback reports whether the peer address is a loopback IP.
func isLoopback(remoteAddr string) bool {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

// statusFor maps protocol error codes to HTTP statuses.
func statusFor(code string) int {
	switch code {
	case protocol.CodeInvalidCall, protocol.CodeInvalidChain:
		return http.StatusBadRequest
	case protocol.CodeRateLimited:
		return http.StatusTooManyRequests
	case protocol.CodeAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func writeFault(w http.ResponseWriter, fault *protocol.Fault) {
	writeJSON(w, statusFor(fault.Code), errorBody{OK: false, Error: fault})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error(fmt.Sprintf("%s - response encode: %v", logPrefix, err))
	}
}
